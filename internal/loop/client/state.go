package client

import (
	"time"

	"github.com/tomz197/bocce/internal/input"
	"github.com/tomz197/bocce/internal/object"
)

// Screen is what the session is showing on top of the match.
type Screen int

const (
	ScreenMatch    Screen = iota // the match itself, whatever its state
	ScreenShutdown               // server is shutting down
)

// ClientState holds per-session presentation state. The match state itself
// lives in the match.
type ClientState struct {
	Input   input.Input
	Screen  Screen
	Running bool

	delta         time.Duration
	shutdownTimer float64
	isInactive    bool

	// Previous-frame values; a change forces a full clear.
	prevScreen   Screen
	prevState    object.GameState
	wasInactive  bool
	prevTermSize [2]int
}

// NewClientState creates a running state on the match screen.
func NewClientState() *ClientState {
	return &ClientState{
		Screen:    ScreenMatch,
		Running:   true,
		prevState: -1,
	}
}
