package match

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/physics"
	"github.com/tomz197/bocce/internal/sched"
	"github.com/tomz197/bocce/internal/throw"
)

type fakeBody struct {
	pos       object.Vec3
	speed     float64
	kinematic bool
	impulses  int
}

func (b *fakeBody) Position() object.Vec3 { return b.pos }
func (b *fakeBody) LinearSpeed() float64 { return b.speed }
func (b *fakeBody) AngularSpeed() float64 { return 0 }
func (b *fakeBody) SetKinematic(k bool) { b.kinematic = k }
func (b *fakeBody) ApplyImpulse(v object.Vec3) {
	b.speed = v.Len()
	b.impulses++
}
func (b *fakeBody) Teleport(p object.Vec3) { b.pos, b.speed = p, 0 }
func (b *fakeBody) Stop() { b.speed = 0 }

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

type rig struct {
	m     *Match
	space fakeSpace
	clock *sched.Clock
	queue *event.Queue
	seen  []event.Event
}

func humanConfig() Config {
	cfg := DefaultConfig()
	cfg.Controllers = [2]object.Controller{object.Human, object.Human}
	return cfg
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	discard := log.New(io.Discard)
	r := &rig{space: fakeSpace{}, clock: sched.New(0.02, discard), queue: event.NewQueue()}
	r.queue.Subscribe(event.ObserverFunc(func(e event.Event) { r.seen = append(r.seen, e) }))
	m, err := New(cfg, r.space, r.clock, r.queue, fixedRand(0.5), discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, b := range m.Balls() {
		r.space[b.ID] = &fakeBody{kinematic: true}
	}
	r.m = m
	r.clock.OnFixed(m.SampleSettle)
	return r
}

// advance runs the clock for seconds in 0.1s frames, flushing events.
func (r *rig) advance(seconds float64) {
	for t := 0.0; t < seconds-1e-9; t += 0.1 {
		r.clock.Advance(0.1)
		r.queue.Flush()
	}
}

// throwHuman walks the launcher through Position, Aim and Power.
func (r *rig) throwHuman(t *testing.T) *object.Ball {
	t.Helper()
	ball := r.m.Launcher().Armed()
	if ball == nil {
		t.Fatalf("no armed ball in %s", r.m.State())
	}
	for i := 0; i < 3; i++ {
		r.m.Update(0, throw.Controls{Confirm: true})
	}
	if r.m.State() != object.StateBallInMotion {
		t.Fatalf("state = %s after throw, want ball_in_motion", r.m.State())
	}
	return ball
}

// land stops ball at z metres down-court and lets it settle.
func (r *rig) land(ball *object.Ball, pos object.Vec3) {
	body := r.space[ball.ID]
	body.pos = pos
	body.speed = 0
	r.advance(0.7)
}

func (r *rig) events(kind event.Kind) []event.Event {
	r.queue.Flush()
	var out []event.Event
	for _, e := range r.seen {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

var targetSpot = object.Vec3{Z: 5}

// playRound throws every ball of the round. Team A's balls land at the
// distances in a, Team B's at those in b, in throwing order.
func (r *rig) playRound(t *testing.T, a, b []float64) {
	t.Helper()
	if r.m.State() != object.StateThrowingTarget {
		t.Fatalf("state = %s, want throwing_target", r.m.State())
	}
	r.land(r.throwHuman(t), targetSpot)
	next := [2]int{}
	dists := [2][]float64{a, b}
	for r.m.State() == object.StateAiming {
		team := r.m.Current()
		ball := r.throwHuman(t)
		if ball.Team != team {
			t.Fatalf("armed %s during %s's turn", ball, team)
		}
		d := dists[team][next[team]]
		next[team]++
		r.land(ball, targetSpot.Add(object.Vec3{X: d}))
	}
	if r.m.State() != object.StateScoring {
		t.Fatalf("state = %s after all throws, want scoring", r.m.State())
	}
}

func TestSevenThenSixWinsAtTwelve(t *testing.T) {
	cfg := humanConfig()
	cfg.BallsPerTeam = 7
	r := newRig(t, cfg)
	if !r.m.Start() {
		t.Fatal("start refused")
	}

	far := []float64{5, 6, 7, 8, 9, 10, 11}
	r.playRound(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}, far)
	if got := r.m.Scores(); got != [2]int{7, 0} {
		t.Fatalf("scores after round 1 = %v, want [7 0]", got)
	}
	r.advance(cfg.ScoringDelay + 0.1)
	if r.m.State() != object.StateRoundOver {
		t.Fatalf("state = %s, want round_over", r.m.State())
	}
	r.advance(cfg.RoundDelay + 0.1)
	if r.m.Round() != 2 {
		t.Fatalf("round = %d, want 2", r.m.Round())
	}

	r.playRound(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 15}, far)
	if got := r.m.Scores(); got != [2]int{13, 0} {
		t.Fatalf("scores after round 2 = %v, want [13 0]", got)
	}
	r.advance(cfg.ScoringDelay + 0.1)
	if r.m.State() != object.StateGameOver {
		t.Fatalf("state = %s, want game_over", r.m.State())
	}
	if r.m.Winner() != object.TeamA {
		t.Fatalf("winner = %s, want Team A", r.m.Winner())
	}
	over := r.events(event.GameOver)
	if len(over) != 1 || over[0].Team != object.TeamA || over[0].Scores != [2]int{13, 0} {
		t.Fatalf("game over events = %+v, want one for Team A at 13-0", over)
	}
	rounds := r.events(event.RoundEnded)
	if len(rounds) != 2 || rounds[0].Points != 7 || rounds[1].Points != 6 {
		t.Fatalf("round events = %+v, want 7 then 6 points", rounds)
	}
}

func TestTargetSettleHandsTurnToTeamB(t *testing.T) {
	r := newRig(t, humanConfig())
	r.m.Start()
	if r.m.Current() != object.TeamA {
		t.Fatalf("opener = %s, want Team A", r.m.Current())
	}
	target := r.throwHuman(t)
	if !target.Target {
		t.Fatalf("first armed ball = %s, want target", target)
	}
	r.land(target, targetSpot)
	if r.m.State() != object.StateAiming || r.m.Current() != object.TeamB {
		t.Fatalf("got %s for %s, want aiming for Team B", r.m.State(), r.m.Current())
	}
	if ball := r.m.Launcher().Armed(); ball == nil || ball.Team != object.TeamB {
		t.Fatalf("armed = %v, want a Team B ball", ball)
	}
}

func TestSettleRequiresFullStillDuration(t *testing.T) {
	r := newRig(t, humanConfig())
	r.m.Start()
	target := r.throwHuman(t)
	body := r.space[target.ID]
	body.speed = 0
	r.clock.Advance(0.1)
	r.clock.Advance(0.1)
	if r.m.State() != object.StateBallInMotion {
		t.Fatalf("state = %s after 0.2s still, want ball_in_motion", r.m.State())
	}
	r.advance(0.4)
	if r.m.State() != object.StateAiming {
		t.Fatalf("state = %s after 0.6s still, want aiming", r.m.State())
	}
}

func TestAtMostOneBallInFlight(t *testing.T) {
	r := newRig(t, humanConfig())
	r.m.Start()
	ball := r.throwHuman(t)
	if r.m.InFlight() != ball {
		t.Fatalf("in flight = %v, want %v", r.m.InFlight(), ball)
	}
	// Input during flight goes nowhere: the launcher is idle.
	for i := 0; i < 5; i++ {
		r.m.Update(0.1, throw.Controls{Confirm: true})
	}
	if ok := r.m.Launcher().ThrowAI(object.ThrowCommand{Power: 10}); ok {
		t.Fatal("computer throw accepted while a ball is in flight")
	}
	inFlight := 0
	for _, b := range r.m.Balls() {
		if b.InFlight() {
			inFlight++
		}
	}
	if inFlight != 1 {
		t.Fatalf("balls in flight = %d, want 1", inFlight)
	}
}

func TestFullTeamYieldsToOther(t *testing.T) {
	cfg := humanConfig()
	cfg.BallsPerTeam = 2
	r := newRig(t, cfg)
	r.m.Start()
	r.land(r.throwHuman(t), targetSpot)

	// B throws first (A has thrown none after), then A. B far, A near: B
	// keeps throwing until empty, then A takes the rest.
	var order []object.Team
	for r.m.State() == object.StateAiming {
		team := r.m.Current()
		order = append(order, team)
		d := 0.2
		if team == object.TeamB {
			d = 3
		}
		r.land(r.throwHuman(t), targetSpot.Add(object.Vec3{Z: d}))
	}
	want := []object.Team{object.TeamB, object.TeamA, object.TeamB, object.TeamA}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestComputerTurnWaitsForThinkDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controllers = [2]object.Controller{object.Computer, object.Human}
	r := newRig(t, cfg)
	r.m.Start()

	if !r.clock.Pending(TimerThink) {
		t.Fatal("no think continuation scheduled")
	}
	// Human input is ignored while the computer is up.
	r.m.Update(0.1, throw.Controls{Confirm: true})
	if r.m.Launcher().Step() != object.StepPosition {
		t.Fatalf("step = %s, want position", r.m.Launcher().Step())
	}
	r.advance(cfg.Opponent.ThinkDelay - 0.2)
	if r.m.State() != object.StateThrowingTarget {
		t.Fatalf("state = %s before think delay, want throwing_target", r.m.State())
	}
	r.advance(0.3)
	if r.m.State() != object.StateBallInMotion {
		t.Fatalf("state = %s after think delay, want ball_in_motion", r.m.State())
	}
	if n := r.space[r.m.Target().ID].impulses; n != 1 {
		t.Fatalf("target impulses = %d, want 1", n)
	}
}

func TestStartAndRestartGuards(t *testing.T) {
	cfg := humanConfig()
	cfg.WinScore = 1
	cfg.BallsPerTeam = 1
	r := newRig(t, cfg)
	if r.m.Restart() {
		t.Fatal("restart accepted before game over")
	}
	if !r.m.SetDifficulty(object.Hard) {
		t.Fatal("difficulty refused while waiting")
	}
	r.m.Start()
	if r.m.Start() {
		t.Fatal("second start accepted")
	}
	if r.m.SetDifficulty(object.Easy) {
		t.Fatal("difficulty change accepted mid-match")
	}

	r.playRound(t, []float64{0.5}, []float64{1})
	r.advance(cfg.ScoringDelay + 0.1)
	if r.m.State() != object.StateGameOver {
		t.Fatalf("state = %s, want game_over", r.m.State())
	}
	if !r.m.Restart() {
		t.Fatal("restart refused after game over")
	}
	if r.m.State() != object.StateThrowingTarget || r.m.Scores() != [2]int{} || r.m.Round() != 1 {
		t.Fatalf("after restart: %s scores %v round %d", r.m.State(), r.m.Scores(), r.m.Round())
	}
	if r.m.Difficulty() != object.Hard {
		t.Fatalf("difficulty = %s, want kept hard", r.m.Difficulty())
	}
}

func TestRoundResetParksBalls(t *testing.T) {
	cfg := humanConfig()
	cfg.BallsPerTeam = 1
	r := newRig(t, cfg)
	r.m.Start()
	r.playRound(t, []float64{0.5}, []float64{1})
	r.advance(cfg.ScoringDelay + cfg.RoundDelay + 0.2)
	if r.m.State() != object.StateThrowingTarget {
		t.Fatalf("state = %s, want throwing_target", r.m.State())
	}
	for _, b := range r.m.Balls() {
		if b.Thrown {
			t.Fatalf("%s still marked thrown", b)
		}
		if b.Target {
			continue
		}
		if got := r.space[b.ID].pos; got != ParkPosition {
			t.Fatalf("%s at %+v, want parked", b, got)
		}
	}
	snap := r.m.Snapshot()
	if snap.Thrown != [2]int{} || snap.InFlight != -1 || snap.Last == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestMissingBodyIsNotFatal(t *testing.T) {
	r := newRig(t, humanConfig())
	delete(r.space, r.m.Target().ID)
	r.m.Start()
	if r.m.State() != object.StateThrowingTarget {
		t.Fatalf("state = %s, want throwing_target", r.m.State())
	}
	if r.m.Launcher().Armed() != nil {
		t.Fatal("launcher armed a ball without a body")
	}
	r.m.Update(0.1, throw.Controls{Confirm: true})
}

func TestComputerMatchOnRealCourt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controllers = [2]object.Controller{object.Computer, object.Computer}
	cfg.WinScore = 3
	cfg.BallsPerTeam = 2
	cfg.Opponent.ThinkDelay = 0.1
	cfg.ScoringDelay = 0.2
	cfg.RoundDelay = 0.2

	discard := log.New(io.Discard)
	world := physics.NewWorld(cfg.Court, discard)
	clock := sched.New(0.02, discard)
	m, err := New(cfg, world, clock, nil, fixedRand(0.5), discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, b := range m.Balls() {
		world.AddBall(b)
	}
	clock.OnFixed(world.Step)
	clock.OnFixed(m.SampleSettle)
	m.Start()

	for frame := 0; frame < 60*600 && m.State() != object.StateGameOver; frame++ {
		clock.Advance(1.0 / 60)
		inFlight := 0
		for _, b := range m.Balls() {
			if b.InFlight() {
				inFlight++
			}
		}
		if inFlight > 1 {
			t.Fatalf("frame %d: %d balls in flight", frame, inFlight)
		}
	}
	if m.State() != object.StateGameOver {
		t.Fatalf("state = %s after ten simulated minutes, want game_over", m.State())
	}
	scores := m.Scores()
	if scores[m.Winner()] < cfg.WinScore {
		t.Fatalf("winner %s has %d points, want >= %d", m.Winner(), scores[m.Winner()], cfg.WinScore)
	}
}
