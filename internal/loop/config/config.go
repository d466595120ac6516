// Package config centralizes the engine loop and session parameters.
package config

import "time"

// Simulation
const (
	FixedTick       = 0.02 // seconds per physics tick (50 Hz)
	MaxFrameSeconds = 0.1  // longer frames are clamped so a stall does not jump the match
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Layout
const (
	BoardCols     = 56 // cells along the court length
	BoardRows     = 9  // cells across the court width
	MaxTermWidth  = 100
	EventLogLines = 5
	PowerBarWidth = 30
	PathPoints    = 24
	PathStep      = 0.12 // seconds between preview path samples
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // countdown shown before auto-disconnect
	ShutdownPollInterval   = 200 * time.Millisecond
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)
