// Package opponent produces throws for computer-controlled teams.
package opponent

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/object"
)

// Tier is one row of the difficulty table.
type Tier struct {
	Difficulty    object.Difficulty
	AngleVariance float64 // degrees either side
	PowerVariance float64 // fraction of ideal power either side
}

// DefaultTiers is the standard difficulty table, easiest first.
var DefaultTiers = []Tier{
	{object.Easy, 25, 0.35},
	{object.Medium, 12, 0.15},
	{object.Hard, 4, 0.05},
}

// Config tunes the decision model.
type Config struct {
	Tiers []Tier

	// Distances mapped onto the bottom and top of the power range.
	NearDistance float64
	FarDistance  float64

	MaxAngle   float64 // ideal bearing is clamped to ±MaxAngle
	ThinkDelay float64 // seconds before a computer throw is issued

	// TargetThrowDistance is how far down the centre line a computer team
	// aims when it throws the target ball.
	TargetThrowDistance float64
}

// DefaultConfig returns the standard model settings.
func DefaultConfig() Config {
	tiers := make([]Tier, len(DefaultTiers))
	copy(tiers, DefaultTiers)
	return Config{
		Tiers:               tiers,
		NearDistance:        2,
		FarDistance:         25,
		MaxAngle:            60,
		ThinkDelay:          1.5,
		TargetThrowDistance: 15,
	}
}

// Validate reports settings the model cannot use.
func (c Config) Validate() error {
	if len(c.Tiers) == 0 {
		return errors.New("opponent: empty difficulty table")
	}
	if c.NearDistance >= c.FarDistance {
		return fmt.Errorf("opponent: near distance %v must be below far distance %v", c.NearDistance, c.FarDistance)
	}
	if c.ThinkDelay < 0 {
		return errors.New("opponent: negative think delay")
	}
	for _, t := range c.Tiers {
		if t.AngleVariance < 0 || t.PowerVariance < 0 {
			return fmt.Errorf("opponent: negative variance for %s", t.Difficulty)
		}
	}
	return nil
}

// Tier returns the table row for d. Unknown tiers use Medium, or the first
// row when the table has no Medium entry.
func (c Config) Tier(d object.Difficulty) Tier {
	var fallback *Tier
	for i := range c.Tiers {
		switch c.Tiers[i].Difficulty {
		case d:
			return c.Tiers[i]
		case object.Medium:
			fallback = &c.Tiers[i]
		}
	}
	if fallback != nil {
		return *fallback
	}
	if len(c.Tiers) > 0 {
		return c.Tiers[0]
	}
	return Tier{Difficulty: d}
}

// Source supplies uniform values in [0, 1). A constant 0.5 yields zero
// variance.
type Source interface {
	Float64() float64
}

// Model turns a target position into a noisy throw.
type Model struct {
	cfg    Config
	src    Source
	logger *log.Logger
}

// New creates a model. src may be nil for noiseless throws.
func New(cfg Config, src Source, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	return &Model{cfg: cfg, src: src, logger: logger.With("component", "opponent")}
}

// Config returns the model settings.
func (m *Model) Config() Config { return m.cfg }

// Ideal returns the noiseless angle and power for hitting target from
// origin with a launcher whose power range is [lo, hi].
func (m *Model) Ideal(origin, target object.Vec3, lo, hi float64) (angle, power float64) {
	angle = object.Clamp(object.Bearing(origin, target), -m.cfg.MaxAngle, m.cfg.MaxAngle)
	dist := object.PlanarDistance(origin, target)
	power = object.Lerp(lo, hi, object.InverseLerp(m.cfg.NearDistance, m.cfg.FarDistance, dist))
	return angle, power
}

// Decide produces the throw for difficulty d. The perturbed angle is not
// re-clamped; power is clamped back into [lo, hi].
func (m *Model) Decide(d object.Difficulty, origin, target object.Vec3, lo, hi float64) object.ThrowCommand {
	tier := m.cfg.Tier(d)
	idealAngle, idealPower := m.Ideal(origin, target, lo, hi)

	angle := idealAngle + m.uniform()*tier.AngleVariance
	power := idealPower * (1 + m.uniform()*tier.PowerVariance)
	power = object.Clamp(power, lo, hi)

	m.logger.Debug("decided",
		"difficulty", tier.Difficulty,
		"ideal_angle", idealAngle, "ideal_power", idealPower,
		"angle", angle, "power", power)
	return object.ThrowCommand{Angle: angle, Power: power}
}

// DecideTarget produces a target-ball throw aimed down the centre line.
func (m *Model) DecideTarget(d object.Difficulty, origin object.Vec3, lo, hi float64) object.ThrowCommand {
	aim := origin.Add(object.Forward.Scale(m.cfg.TargetThrowDistance))
	return m.Decide(d, origin, aim, lo, hi)
}

// uniform returns a value in [-1, 1).
func (m *Model) uniform() float64 {
	if m.src == nil {
		return 0
	}
	return 2*m.src.Float64() - 1
}
