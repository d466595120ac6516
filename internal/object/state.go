package object

import (
	"fmt"
	"strings"
)

// GameState is the match coordinator's top-level phase.
type GameState int

const (
	StateWaitingToStart GameState = iota
	StateThrowingTarget
	StateAiming
	StateBallInMotion
	StateScoring
	StateRoundOver
	StateGameOver
)

var gameStateNames = [...]string{
	StateWaitingToStart: "waiting_to_start",
	StateThrowingTarget: "throwing_target",
	StateAiming:         "aiming",
	StateBallInMotion:   "ball_in_motion",
	StateScoring:        "scoring",
	StateRoundOver:      "round_over",
	StateGameOver:       "game_over",
}

func (s GameState) String() string {
	if s >= 0 && int(s) < len(gameStateNames) {
		return gameStateNames[s]
	}
	return fmt.Sprintf("GameState(%d)", int(s))
}

func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameState) UnmarshalText(text []byte) error {
	i, ok := lookupName(gameStateNames[:], string(text))
	if !ok {
		return fmt.Errorf("unknown game state %q", text)
	}
	*s = GameState(i)
	return nil
}

// ThrowStep is the per-throw input phase.
type ThrowStep int

const (
	StepIdle ThrowStep = iota
	StepPosition
	StepAim
	StepPower
	StepThrowing
)

var throwStepNames = [...]string{
	StepIdle:     "idle",
	StepPosition: "position",
	StepAim:      "aim",
	StepPower:    "power",
	StepThrowing: "throwing",
}

func (s ThrowStep) String() string {
	if s >= 0 && int(s) < len(throwStepNames) {
		return throwStepNames[s]
	}
	return fmt.Sprintf("ThrowStep(%d)", int(s))
}

func (s ThrowStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ThrowStep) UnmarshalText(text []byte) error {
	i, ok := lookupName(throwStepNames[:], string(text))
	if !ok {
		return fmt.Errorf("unknown throw step %q", text)
	}
	*s = ThrowStep(i)
	return nil
}

// Difficulty is the computer opponent's skill tier.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	v, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDifficulty accepts the names produced by Difficulty.String.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Controller says who supplies a team's throws.
type Controller int

const (
	Human Controller = iota
	Computer
)

func (c Controller) String() string {
	if c == Computer {
		return "ai"
	}
	return "human"
}

// ParseController accepts "human" or "ai".
func ParseController(s string) (Controller, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return Human, nil
	case "ai", "computer", "cpu":
		return Computer, nil
	}
	return Human, fmt.Errorf("unknown controller %q", s)
}

// ThrowCommand is a one-shot launch request.
type ThrowCommand struct {
	Angle   float64 // degrees from Forward, positive toward +X
	Power   float64 // impulse magnitude in the launcher's active range
	Lateral float64 // offset along X from the throw origin
}

// RoundResult is the scoring outcome of one round.
type RoundResult struct {
	Team   Team `json:"team"`
	Points int  `json:"points"`
}

func lookupName(names []string, s string) (int, bool) {
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}
