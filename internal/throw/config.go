package throw

import (
	"errors"
	"fmt"
	"strings"
)

// AimMode selects how the aim angle moves during the Aim step.
type AimMode int

const (
	// AimOscillate sweeps the angle sinusoidally between the limits.
	AimOscillate AimMode = iota
	// AimManual steers the angle with the lateral axis.
	AimManual
)

func (m AimMode) String() string {
	if m == AimManual {
		return "manual"
	}
	return "oscillate"
}

// ParseAimMode accepts "oscillate" or "manual".
func ParseAimMode(s string) (AimMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oscillate", "auto":
		return AimOscillate, nil
	case "manual":
		return AimManual, nil
	}
	return AimOscillate, fmt.Errorf("unknown aim mode %q", s)
}

// Config holds launcher tuning.
type Config struct {
	PowerMin       float64
	PowerMax       float64
	TargetPowerMin float64
	TargetPowerMax float64
	PowerRate      float64 // ping-pong units per second over the normalized range

	SweetLo   float64
	SweetHi   float64
	MaxSpread float64 // degrees at full overpower

	AimMode        AimMode
	MaxAngle       float64 // degrees either side of Forward
	AimFrequency   float64 // Hz, oscillating mode
	ManualAimSpeed float64 // degrees per second, manual mode

	HalfWidth     float64 // half the court width
	LateralMargin float64
	LateralSpeed  float64 // metres per second

	// Lift is the fraction of power added as vertical impulse on regular
	// balls. The target ball gets none.
	Lift float64
}

// DefaultConfig returns the standard launcher settings.
func DefaultConfig() Config {
	return Config{
		PowerMin:       3,
		PowerMax:       18,
		TargetPowerMin: 0.2,
		TargetPowerMax: 1.2,
		PowerRate:      0.5,

		SweetLo:   0.55,
		SweetHi:   0.8,
		MaxSpread: 12,

		AimMode:        AimOscillate,
		MaxAngle:       60,
		AimFrequency:   0.25,
		ManualAimSpeed: 40,

		HalfWidth:     2,
		LateralMargin: 0.3,
		LateralSpeed:  1.5,

		Lift: 0.08,
	}
}

// Validate reports impossible settings.
func (c Config) Validate() error {
	if c.PowerMin > c.PowerMax || c.TargetPowerMin > c.TargetPowerMax {
		return errors.New("throw: min power exceeds max power")
	}
	if c.PowerMin < 0 || c.TargetPowerMin < 0 {
		return errors.New("throw: power must be non-negative")
	}
	if c.SweetLo < 0 || c.SweetHi > 1 || c.SweetLo > c.SweetHi {
		return fmt.Errorf("throw: sweet spot [%v, %v] must lie within [0, 1]", c.SweetLo, c.SweetHi)
	}
	if c.MaxAngle <= 0 || c.MaxAngle >= 90 {
		return fmt.Errorf("throw: max angle %v must be in (0, 90)", c.MaxAngle)
	}
	if c.PowerRate <= 0 {
		return errors.New("throw: power rate must be positive")
	}
	if c.LateralMargin > c.HalfWidth {
		return errors.New("throw: lateral margin wider than half the court")
	}
	return nil
}

func (c Config) lateralLimit() float64 {
	return c.HalfWidth - c.LateralMargin
}
