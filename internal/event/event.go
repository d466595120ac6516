// Package event carries one-way notifications from the match core to its
// observers (HUD, spectators). The core never reads anything back.
package event

import (
	"fmt"

	"github.com/tomz197/bocce/internal/object"
)

// Kind identifies the payload an Event carries.
type Kind int

const (
	StateChanged Kind = iota // State
	TurnChanged              // Team
	ScoreUpdated             // Scores
	RoundEnded               // Team, Points
	GameOver                 // Team (winner)
	StepChanged              // Step
	PowerChanged             // Power (normalized 0-1)
	SweetSpot                // SweetLo, SweetHi
)

var kindNames = [...]string{
	StateChanged: "state_changed",
	TurnChanged:  "turn_changed",
	ScoreUpdated: "score_updated",
	RoundEnded:   "round_ended",
	GameOver:     "game_over",
	StepChanged:  "step_changed",
	PowerChanged: "power_changed",
	SweetSpot:    "sweet_spot",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event is a single notification. Only the fields noted next to its Kind
// are meaningful, and only those are encoded to JSON.
type Event struct {
	Kind    Kind
	State   object.GameState
	Team    object.Team
	Scores  [2]int
	Points  int
	Round   int
	Step    object.ThrowStep
	Power   float64
	SweetLo float64
	SweetHi float64
}

func State(s object.GameState, round int) Event {
	return Event{Kind: StateChanged, State: s, Round: round}
}

func Turn(t object.Team) Event {
	return Event{Kind: TurnChanged, Team: t}
}

func Score(scores [2]int) Event {
	return Event{Kind: ScoreUpdated, Scores: scores}
}

func Round(r object.RoundResult, round int) Event {
	return Event{Kind: RoundEnded, Team: r.Team, Points: r.Points, Round: round}
}

func Winner(t object.Team, scores [2]int) Event {
	return Event{Kind: GameOver, Team: t, Scores: scores}
}

func Step(s object.ThrowStep) Event {
	return Event{Kind: StepChanged, Step: s}
}

func Power(n float64) Event {
	return Event{Kind: PowerChanged, Power: n}
}

func Band(lo, hi float64) Event {
	return Event{Kind: SweetSpot, SweetLo: lo, SweetHi: hi}
}

func (e Event) String() string {
	switch e.Kind {
	case StateChanged:
		return fmt.Sprintf("%s %s", e.Kind, e.State)
	case TurnChanged:
		return fmt.Sprintf("%s %s", e.Kind, e.Team)
	case ScoreUpdated:
		return fmt.Sprintf("%s %d-%d", e.Kind, e.Scores[0], e.Scores[1])
	case RoundEnded:
		return fmt.Sprintf("%s %s +%d", e.Kind, e.Team, e.Points)
	case GameOver:
		return fmt.Sprintf("%s %s", e.Kind, e.Team)
	case StepChanged:
		return fmt.Sprintf("%s %s", e.Kind, e.Step)
	case PowerChanged:
		return fmt.Sprintf("%s %.2f", e.Kind, e.Power)
	case SweetSpot:
		return fmt.Sprintf("%s [%.2f, %.2f]", e.Kind, e.SweetLo, e.SweetHi)
	}
	return e.Kind.String()
}
