package throw

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/physics"
)

type fakeBody struct {
	pos       object.Vec3
	kinematic bool
	impulses  []object.Vec3
}

func (b *fakeBody) Position() object.Vec3 { return b.pos }
func (b *fakeBody) LinearSpeed() float64 { return 0 }
func (b *fakeBody) AngularSpeed() float64 { return 0 }
func (b *fakeBody) SetKinematic(k bool) { b.kinematic = k }
func (b *fakeBody) ApplyImpulse(v object.Vec3) {
	b.impulses = append(b.impulses, v)
}
func (b *fakeBody) Teleport(p object.Vec3) { b.pos = p }
func (b *fakeBody) Stop() {}

type fakeSpace map[int]*fakeBody

func (s fakeSpace) Body(id int) (physics.Body, bool) {
	b, ok := s[id]
	if !ok {
		return nil, false
	}
	return b, true
}

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

type recordingTracker struct {
	tracked []*object.Ball
}

func (t *recordingTracker) Track(ball *object.Ball, _ physics.Body) {
	t.tracked = append(t.tracked, ball)
}

type rig struct {
	m       *Machine
	body    *fakeBody
	ball    *object.Ball
	queue   *event.Queue
	tracker *recordingTracker
	thrown  []Release
}

func newRig(t *testing.T, cfg Config, r Rand) *rig {
	t.Helper()
	body := &fakeBody{pos: object.Vec3{Y: 0.16, Z: -11.75}}
	rg := &rig{
		body:    body,
		ball:    &object.Ball{ID: 1, Team: object.TeamA},
		queue:   event.NewQueue(),
		tracker: &recordingTracker{},
	}
	rg.m = New(cfg, fakeSpace{1: body}, rg.queue, rg.tracker, r, log.New(io.Discard))
	rg.m.OnThrown(func(rel Release) { rg.thrown = append(rg.thrown, rel) })
	return rg
}

// powerAt walks a freshly armed machine to the Power step and advances the
// ping-pong by seconds.
func (rg *rig) powerAt(seconds float64) {
	rg.m.Update(0, Controls{Confirm: true})
	rg.m.Update(0, Controls{Confirm: true})
	rg.m.Update(seconds, Controls{})
}

func TestArmEntersPositionStep(t *testing.T) {
	rg := newRig(t, DefaultConfig(), nil)
	if !rg.m.Arm(rg.ball, false) {
		t.Fatal("Arm failed")
	}
	if rg.m.Step() != object.StepPosition {
		t.Fatalf("step = %s, want position", rg.m.Step())
	}
	if !rg.body.kinematic {
		t.Fatal("armed ball should be kinematic")
	}
	evs := rg.queue.Drain()
	if len(evs) != 1 || evs[0].Kind != event.StepChanged || evs[0].Step != object.StepPosition {
		t.Fatalf("events = %v, want one step_changed position", evs)
	}
}

func TestArmWithoutBodyStaysIdle(t *testing.T) {
	rg := newRig(t, DefaultConfig(), nil)
	if rg.m.Arm(&object.Ball{ID: 99}, false) {
		t.Fatal("Arm succeeded without a body")
	}
	if rg.m.Step() != object.StepIdle {
		t.Fatalf("step = %s, want idle", rg.m.Step())
	}
}

func TestLateralIsClamped(t *testing.T) {
	cfg := DefaultConfig()
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, false)

	rg.m.Update(10, Controls{Lateral: 1})
	want := cfg.HalfWidth - cfg.LateralMargin
	if got := rg.m.Lateral(); got != want {
		t.Fatalf("lateral = %v, want %v", got, want)
	}
	if rg.body.pos.X != want {
		t.Fatalf("ball x = %v, want %v", rg.body.pos.X, want)
	}
	rg.m.Update(100, Controls{Lateral: -1})
	if got := rg.m.Lateral(); got != -want {
		t.Fatalf("lateral = %v, want %v", got, -want)
	}
}

func TestOscillatingAimFreezesOnConfirm(t *testing.T) {
	cfg := DefaultConfig()
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, false)
	rg.m.Update(0, Controls{Confirm: true})

	// A quarter period puts the sweep at its positive limit.
	rg.m.Update(1/(4*cfg.AimFrequency), Controls{})
	if got := rg.m.Angle(); math.Abs(got-cfg.MaxAngle) > 1e-9 {
		t.Fatalf("angle = %v, want %v", got, cfg.MaxAngle)
	}
	rg.m.Update(0.3, Controls{Confirm: true})
	if rg.m.Step() != object.StepPower {
		t.Fatalf("step = %s, want power", rg.m.Step())
	}
	locked := rg.m.Angle()
	rg.m.Update(0.3, Controls{})
	if rg.m.Angle() != locked {
		t.Fatalf("angle moved after confirm: %v -> %v", locked, rg.m.Angle())
	}
}

func TestManualAimIsClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AimMode = AimManual
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, false)
	rg.m.Update(0, Controls{Confirm: true})

	rg.m.Update(1, Controls{Lateral: 1})
	if got := rg.m.Angle(); got != cfg.ManualAimSpeed {
		t.Fatalf("angle = %v, want %v", got, cfg.ManualAimSpeed)
	}
	rg.m.Update(10, Controls{Lateral: 1})
	if got := rg.m.Angle(); got != cfg.MaxAngle {
		t.Fatalf("angle = %v, want clamp %v", got, cfg.MaxAngle)
	}
}

func TestPowerStepQuality(t *testing.T) {
	tests := []struct {
		name      string
		sweetLo   float64
		sweetHi   float64
		held      float64 // seconds at rate 1, so n == held for held <= 1
		quality   Quality
		deviation float64
	}{
		{"upper bound is inclusive", 0.5, 0.75, 0.75, Accurate, 0},
		{"inside band", 0.5, 0.75, 0.625, Accurate, 0},
		{"underpowered", 0.5, 0.75, 0.25, Underpowered, 0},
		// excess = (0.75-0.5)/(1-0.5) = 0.5; uniform(0.75) = 0.5; 0.5*0.5*12 = 3
		{"overpowered", 0.25, 0.5, 0.75, Overpowered, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PowerRate = 1
			cfg.SweetLo, cfg.SweetHi = tt.sweetLo, tt.sweetHi
			rg := newRig(t, cfg, fixedRand(0.75))
			rg.m.Arm(rg.ball, false)
			rg.powerAt(tt.held)
			rg.m.Update(0, Controls{Confirm: true})

			if len(rg.thrown) != 1 {
				t.Fatalf("thrown %d, want 1", len(rg.thrown))
			}
			rel := rg.thrown[0]
			if rel.Quality != tt.quality {
				t.Fatalf("quality = %s, want %s", rel.Quality, tt.quality)
			}
			if math.Abs(rel.Deviation-tt.deviation) > 1e-9 {
				t.Fatalf("deviation = %v, want %v", rel.Deviation, tt.deviation)
			}
			if rel.Final != rel.Angle+rel.Deviation {
				t.Fatalf("final = %v, want angle+deviation %v", rel.Final, rel.Angle+rel.Deviation)
			}
			if rel.Normalized != tt.held {
				t.Fatalf("normalized = %v, want %v", rel.Normalized, tt.held)
			}
		})
	}
}

func TestReleaseImpulseAndHandoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PowerRate = 1
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, false)
	rg.powerAt(0.75)
	rg.m.Update(0, Controls{Confirm: true})

	power := object.Lerp(cfg.PowerMin, cfg.PowerMax, 0.75)
	if len(rg.body.impulses) != 1 {
		t.Fatalf("impulses applied = %d, want 1", len(rg.body.impulses))
	}
	imp := rg.body.impulses[0]
	if math.Abs(imp.Z-power) > 1e-9 || math.Abs(imp.X) > 1e-9 {
		t.Fatalf("impulse = %+v, want forward %v", imp, power)
	}
	if math.Abs(imp.Y-power*cfg.Lift) > 1e-9 {
		t.Fatalf("lift = %v, want %v", imp.Y, power*cfg.Lift)
	}
	if rg.body.kinematic {
		t.Fatal("released ball still kinematic")
	}
	if len(rg.tracker.tracked) != 1 || rg.tracker.tracked[0] != rg.ball {
		t.Fatal("settle tracking was not started for the ball")
	}
	if rg.m.Step() != object.StepIdle || rg.m.Armed() != nil {
		t.Fatalf("step = %s armed = %v, want idle and nothing armed", rg.m.Step(), rg.m.Armed())
	}
}

func TestTargetThrowHasNoLiftAndUsesTargetRange(t *testing.T) {
	cfg := DefaultConfig()
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, true)

	lo, hi := rg.m.PowerRange()
	if lo != cfg.TargetPowerMin || hi != cfg.TargetPowerMax {
		t.Fatalf("range = [%v, %v], want target range", lo, hi)
	}
	rg.m.ThrowAI(object.ThrowCommand{Power: 100})
	imp := rg.body.impulses[0]
	if imp.Y != 0 {
		t.Fatalf("target lift = %v, want 0", imp.Y)
	}
	if math.Abs(imp.Z-cfg.TargetPowerMax) > 1e-9 {
		t.Fatalf("power = %v, want clamped %v", imp.Z, cfg.TargetPowerMax)
	}
}

func TestThrowAIBypassesSteps(t *testing.T) {
	cfg := DefaultConfig()
	rg := newRig(t, cfg, fixedRand(0.99))
	rg.m.Arm(rg.ball, false)

	if !rg.m.ThrowAI(object.ThrowCommand{Angle: 75, Power: 1, Lateral: 0.5}) {
		t.Fatal("ThrowAI rejected an armed ball")
	}
	rel := rg.thrown[0]
	if rel.Quality != Computer || rel.Deviation != 0 {
		t.Fatalf("quality=%s deviation=%v, want computer/0", rel.Quality, rel.Deviation)
	}
	if rel.Angle != 75 {
		t.Fatalf("angle = %v, want 75 unclamped", rel.Angle)
	}
	if rel.Power != cfg.PowerMin {
		t.Fatalf("power = %v, want clamped %v", rel.Power, cfg.PowerMin)
	}
	if rg.body.pos.X != 0.5 {
		t.Fatalf("ball x = %v, want lateral 0.5", rg.body.pos.X)
	}
}

func TestStepsWithoutArmedBallAreNoops(t *testing.T) {
	rg := newRig(t, DefaultConfig(), nil)

	rg.m.Update(1, Controls{Confirm: true, Lateral: 1})
	if rg.m.ThrowAI(object.ThrowCommand{Power: 5}) {
		t.Fatal("ThrowAI succeeded with nothing armed")
	}
	if len(rg.thrown) != 0 || len(rg.body.impulses) != 0 {
		t.Fatal("idle machine released a ball")
	}
	if rg.queue.Len() != 0 {
		t.Fatalf("idle machine emitted %d events", rg.queue.Len())
	}
}

func TestPowerEventsReportBandAndLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PowerRate = 1
	rg := newRig(t, cfg, nil)
	rg.m.Arm(rg.ball, false)
	rg.m.Update(0, Controls{Confirm: true})
	rg.m.Update(0, Controls{Confirm: true})
	rg.queue.Drain()

	rg.m.Update(0.5, Controls{})
	evs := rg.queue.Drain()
	if len(evs) != 1 || evs[0].Kind != event.PowerChanged || evs[0].Power != 0.5 {
		t.Fatalf("events = %v, want power_changed 0.5", evs)
	}
}

func TestTrajectoryStartsAtOrigin(t *testing.T) {
	rg := newRig(t, DefaultConfig(), nil)
	rg.m.Arm(rg.ball, false)
	path := rg.m.Trajectory(10, 0.05)
	if len(path) != 10 {
		t.Fatalf("points = %d, want 10", len(path))
	}
	if path[0] != rg.m.Origin() {
		t.Fatalf("path starts at %+v, want origin %+v", path[0], rg.m.Origin())
	}
	if path[9].Z <= path[0].Z {
		t.Fatal("path does not advance forward")
	}
}
