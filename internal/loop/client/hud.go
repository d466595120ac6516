package client

import (
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/scoring"
)

// HUD is the event-fed view model for the heads-up display. It only learns
// about the match through Notify.
type HUD struct {
	State   object.GameState
	Round   int
	Turn    object.Team
	Scores  [2]int
	Step    object.ThrowStep
	Power   float64
	SweetLo float64
	SweetHi float64
	Last    *object.RoundResult
	Winner  object.Team
	Log     []string

	logSize int
}

// NewHUD creates a HUD keeping the last logSize events.
func NewHUD(logSize int) *HUD {
	return &HUD{Winner: object.TeamNone, Turn: object.TeamNone, logSize: logSize}
}

var _ event.Observer = (*HUD)(nil)

// Notify implements event.Observer.
func (h *HUD) Notify(e event.Event) {
	switch e.Kind {
	case event.StateChanged:
		h.State = e.State
		h.Round = e.Round
		if e.State == object.StateWaitingToStart || e.State == object.StateThrowingTarget {
			h.Winner = object.TeamNone
		}
	case event.TurnChanged:
		h.Turn = e.Team
	case event.ScoreUpdated:
		h.Scores = e.Scores
	case event.RoundEnded:
		h.Last = &object.RoundResult{Team: e.Team, Points: e.Points}
	case event.GameOver:
		h.Winner = e.Team
		h.Scores = e.Scores
	case event.StepChanged:
		h.Step = e.Step
		if e.Step != object.StepPower {
			h.Power = 0
		}
	case event.PowerChanged:
		h.Power = e.Power
		return // too frequent for the log
	case event.SweetSpot:
		h.SweetLo, h.SweetHi = e.SweetLo, e.SweetHi
	}
	h.log(e.String())
}

func (h *HUD) log(line string) {
	if h.logSize <= 0 {
		return
	}
	h.Log = append(h.Log, line)
	if len(h.Log) > h.logSize {
		h.Log = h.Log[len(h.Log)-h.logSize:]
	}
}

// Holding is who would score if the round ended now.
type Holding struct {
	Team   object.Team
	Points int
	Margin float64 // lead over the other team's nearest ball; 0 when it has none
	Lone   bool    // the other team has no ball down yet
}

// HoldingFrom reads the leader off ranked standings, nearest first.
func HoldingFrom(standings []scoring.Entry) (Holding, bool) {
	if len(standings) == 0 {
		return Holding{}, false
	}
	lead := standings[0]
	h := Holding{Team: lead.Team, Lone: true}
	for _, e := range standings {
		if e.Team != lead.Team {
			h.Margin = e.Distance - lead.Distance
			h.Lone = false
			break
		}
		h.Points++
	}
	return h, true
}
