// Package throw drives a single throw from arming to release: the
// Position, Aim and Power input steps for humans and the direct path used by
// the computer opponent.
package throw

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/physics"
)

// Quality classifies how a throw was released.
type Quality int

const (
	Accurate Quality = iota
	Overpowered
	Underpowered
	Computer
)

func (q Quality) String() string {
	switch q {
	case Accurate:
		return "accurate"
	case Overpowered:
		return "overpowered"
	case Underpowered:
		return "underpowered"
	case Computer:
		return "computer"
	}
	return "unknown"
}

// Controls is one frame of human input.
type Controls struct {
	Confirm bool
	Lateral float64 // [-1, 1]
}

// Rand supplies uniform values in [0, 1).
type Rand interface {
	Float64() float64
}

// Tracker starts settle detection for a released ball.
type Tracker interface {
	Track(ball *object.Ball, body physics.Body)
}

// Release describes a completed throw.
type Release struct {
	Ball       *object.Ball
	Target     bool
	Lateral    float64
	Angle      float64 // locked aim
	Deviation  float64 // overpower penalty added at release
	Final      float64 // Angle + Deviation
	Power      float64
	Normalized float64 // ping-pong position at confirm; 0 for computer throws
	Quality    Quality
	Impulse    object.Vec3
}

// Machine is the per-throw state machine. It holds at most one armed ball.
type Machine struct {
	cfg     Config
	space   physics.Space
	emit    event.Emitter
	tracker Tracker
	rng     Rand
	logger  *log.Logger
	thrown  func(Release)

	step   object.ThrowStep
	ball   *object.Ball
	body   physics.Body
	target bool
	origin object.Vec3

	lateral float64
	angle   float64
	aimT    float64
	powerT  float64
	norm    float64
	power   float64
	powerLo float64
	powerHi float64
}

// New creates an idle machine. emit may be nil.
func New(cfg Config, space physics.Space, emit event.Emitter, tracker Tracker, rng Rand, logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.Default()
	}
	m := &Machine{
		cfg:     cfg,
		space:   space,
		emit:    emit,
		tracker: tracker,
		rng:     rng,
		logger:  logger.With("component", "throw"),
	}
	m.powerLo, m.powerHi = cfg.PowerMin, cfg.PowerMax
	return m
}

// OnThrown registers the callback invoked after every release.
func (m *Machine) OnThrown(fn func(Release)) {
	m.thrown = fn
}

// Arm prepares ball for a throw, discarding any previous step state. The
// ball's current position becomes the throw origin. Returns false when the
// ball has no physics body.
func (m *Machine) Arm(ball *object.Ball, isTarget bool) bool {
	m.reset()
	if ball == nil {
		m.logger.Warn("arm without a ball")
		return false
	}
	body, ok := m.space.Body(ball.ID)
	if !ok {
		m.logger.Warn("arm: ball has no body", "ball", ball)
		return false
	}
	m.ball = ball
	m.body = body
	m.target = isTarget
	m.origin = body.Position()
	if isTarget {
		m.powerLo, m.powerHi = m.cfg.TargetPowerMin, m.cfg.TargetPowerMax
	}
	m.power = m.powerLo
	body.SetKinematic(true)
	body.Stop()
	m.setStep(object.StepPosition)
	return true
}

func (m *Machine) reset() {
	m.ball = nil
	m.body = nil
	m.target = false
	m.lateral = 0
	m.angle = 0
	m.aimT = 0
	m.powerT = 0
	m.norm = 0
	m.powerLo, m.powerHi = m.cfg.PowerMin, m.cfg.PowerMax
	m.power = m.powerLo
	m.step = object.StepIdle
}

// Update advances the active step by dt seconds with one frame of input.
// It does nothing while idle.
func (m *Machine) Update(dt float64, in Controls) {
	switch m.step {
	case object.StepPosition:
		if in.Confirm {
			m.setStep(object.StepAim)
			return
		}
		limit := m.cfg.lateralLimit()
		m.lateral = object.Clamp(m.lateral+object.Clamp(in.Lateral, -1, 1)*m.cfg.LateralSpeed*dt, -limit, limit)
		m.body.Teleport(m.origin.Add(object.Vec3{X: m.lateral}))

	case object.StepAim:
		if in.Confirm {
			m.enterPower()
			return
		}
		if m.cfg.AimMode == AimManual {
			m.angle += object.Clamp(in.Lateral, -1, 1) * m.cfg.ManualAimSpeed * dt
		} else {
			m.aimT += dt
			m.angle = m.cfg.MaxAngle * math.Sin(2*math.Pi*m.cfg.AimFrequency*m.aimT)
		}
		m.angle = object.Clamp(m.angle, -m.cfg.MaxAngle, m.cfg.MaxAngle)

	case object.StepPower:
		if in.Confirm {
			m.confirmPower()
			return
		}
		m.powerT += dt
		m.setNormalized(object.PingPong(m.powerT*m.cfg.PowerRate, 1))
	}
}

func (m *Machine) enterPower() {
	m.powerT = 0
	m.setStep(object.StepPower)
	m.send(event.Band(m.cfg.SweetLo, m.cfg.SweetHi))
	m.setNormalized(0)
}

func (m *Machine) setNormalized(n float64) {
	m.norm = n
	m.power = object.Lerp(m.powerLo, m.powerHi, n)
	m.send(event.Power(n))
}

func (m *Machine) confirmPower() {
	n := m.norm
	quality := Accurate
	deviation := 0.0
	switch {
	case n > m.cfg.SweetHi:
		quality = Overpowered
		excess := 1.0
		if m.cfg.SweetHi < 1 {
			excess = (n - m.cfg.SweetHi) / (1 - m.cfg.SweetHi)
		}
		deviation = m.uniform() * excess * m.cfg.MaxSpread
	case n < m.cfg.SweetLo:
		quality = Underpowered
	}
	m.release(m.angle, deviation, m.power, n, quality)
}

// uniform returns a value in [-1, 1).
func (m *Machine) uniform() float64 {
	if m.rng == nil {
		return 0
	}
	return 2*m.rng.Float64() - 1
}

// ThrowAI releases the armed ball immediately with the given command,
// skipping the input steps. Power is clamped to the active range; the angle
// is used as given. Returns false when nothing is armed.
func (m *Machine) ThrowAI(cmd object.ThrowCommand) bool {
	if m.step == object.StepIdle || m.ball == nil {
		m.logger.Warn("computer throw with no armed ball")
		return false
	}
	if m.step == object.StepThrowing {
		m.logger.Warn("computer throw during release", "ball", m.ball)
		return false
	}
	limit := m.cfg.lateralLimit()
	m.lateral = object.Clamp(cmd.Lateral, -limit, limit)
	m.body.Teleport(m.origin.Add(object.Vec3{X: m.lateral}))
	m.angle = cmd.Angle
	power := object.Clamp(cmd.Power, m.powerLo, m.powerHi)
	m.release(cmd.Angle, 0, power, 0, Computer)
	return true
}

func (m *Machine) release(angle, deviation, power, n float64, quality Quality) {
	ball, body := m.ball, m.body
	final := angle + deviation
	impulse := object.Heading(final).Scale(power)
	if !m.target {
		impulse.Y = power * m.cfg.Lift
	}

	m.setStep(object.StepThrowing)
	body.SetKinematic(false)
	body.ApplyImpulse(impulse)
	if m.tracker != nil {
		m.tracker.Track(ball, body)
	}

	rel := Release{
		Ball:       ball,
		Target:     m.target,
		Lateral:    m.lateral,
		Angle:      angle,
		Deviation:  deviation,
		Final:      final,
		Power:      power,
		Normalized: n,
		Quality:    quality,
		Impulse:    impulse,
	}
	m.logger.Debug("released", "ball", ball, "angle", final, "power", power, "quality", quality)

	m.reset()
	m.setStep(object.StepIdle)
	if m.thrown != nil {
		m.thrown(rel)
	}
}

func (m *Machine) setStep(s object.ThrowStep) {
	m.step = s
	m.send(event.Step(s))
}

func (m *Machine) send(e event.Event) {
	if m.emit != nil {
		m.emit.Emit(e)
	}
}

// Step returns the current input step.
func (m *Machine) Step() object.ThrowStep { return m.step }

// Armed returns the armed ball, or nil.
func (m *Machine) Armed() *object.Ball { return m.ball }

// Target reports whether the armed ball is the target ball.
func (m *Machine) Target() bool { return m.target }

// Angle returns the current aim angle in degrees.
func (m *Machine) Angle() float64 { return m.angle }

// Lateral returns the current offset from the throw origin.
func (m *Machine) Lateral() float64 { return m.lateral }

// Power returns the current power and its normalized position.
func (m *Machine) Power() (power, normalized float64) { return m.power, m.norm }

// PowerRange returns the active (min, max) power.
func (m *Machine) PowerRange() (lo, hi float64) { return m.powerLo, m.powerHi }

// SweetSpot returns the accurate band.
func (m *Machine) SweetSpot() (lo, hi float64) { return m.cfg.SweetLo, m.cfg.SweetHi }

// Origin returns the throw origin including the lateral offset.
func (m *Machine) Origin() object.Vec3 {
	return m.origin.Add(object.Vec3{X: m.lateral})
}

// Preview returns the aim direction without any overpower deviation.
func (m *Machine) Preview() object.Vec3 {
	return object.Heading(m.angle)
}

// Trajectory returns an approximate ground-roll path for the current aim and
// power, sampled every stepSeconds with a fixed per-sample friction.
func (m *Machine) Trajectory(points int, stepSeconds float64) []object.Vec3 {
	if points <= 0 {
		return nil
	}
	const friction = 0.95
	path := make([]object.Vec3, points)
	pos := m.Origin()
	vel := m.Preview().Scale(m.power)
	for i := range path {
		path[i] = pos
		pos = pos.Add(vel.Scale(stepSeconds))
		vel = vel.Scale(friction)
	}
	return path
}
