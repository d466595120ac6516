package event

import (
	"encoding/json"

	"github.com/tomz197/bocce/internal/object"
)

// wireEvent is the JSON shape of an Event. Fields not carried by the kind
// stay nil and are omitted.
type wireEvent struct {
	Kind    Kind              `json:"kind"`
	State   *object.GameState `json:"state,omitempty"`
	Team    *object.Team      `json:"team,omitempty"`
	Scores  *[2]int           `json:"scores,omitempty"`
	Points  *int              `json:"points,omitempty"`
	Round   *int              `json:"round,omitempty"`
	Step    *object.ThrowStep `json:"step,omitempty"`
	Power   *float64          `json:"power,omitempty"`
	SweetLo *float64          `json:"sweet_lo,omitempty"`
	SweetHi *float64          `json:"sweet_hi,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Kind: e.Kind}
	switch e.Kind {
	case StateChanged:
		w.State, w.Round = &e.State, &e.Round
	case TurnChanged:
		w.Team = &e.Team
	case ScoreUpdated:
		w.Scores = &e.Scores
	case RoundEnded:
		w.Team, w.Points, w.Round = &e.Team, &e.Points, &e.Round
	case GameOver:
		w.Team, w.Scores = &e.Team, &e.Scores
	case StepChanged:
		w.Step = &e.Step
	case PowerChanged:
		w.Power = &e.Power
	case SweetSpot:
		w.SweetLo, w.SweetHi = &e.SweetLo, &e.SweetHi
	}
	return json.Marshal(w)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{Kind: w.Kind}
	if w.State != nil {
		e.State = *w.State
	}
	if w.Team != nil {
		e.Team = *w.Team
	}
	if w.Scores != nil {
		e.Scores = *w.Scores
	}
	if w.Points != nil {
		e.Points = *w.Points
	}
	if w.Round != nil {
		e.Round = *w.Round
	}
	if w.Step != nil {
		e.Step = *w.Step
	}
	if w.Power != nil {
		e.Power = *w.Power
	}
	if w.SweetLo != nil {
		e.SweetLo = *w.SweetLo
	}
	if w.SweetHi != nil {
		e.SweetHi = *w.SweetHi
	}
	return nil
}
