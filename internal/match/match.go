// Package match runs a bocce match: it owns the match state, arms throws
// for whichever team is up, tracks settles and applies round scoring.
package match

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/opponent"
	"github.com/tomz197/bocce/internal/physics"
	"github.com/tomz197/bocce/internal/scoring"
	"github.com/tomz197/bocce/internal/settle"
	"github.com/tomz197/bocce/internal/throw"
)

// Timer keys for deferred continuations. Each key holds at most one
// pending continuation.
const (
	TimerThink = "think"
	TimerScore = "score"
	TimerRound = "round"
)

// ParkPosition is where unused balls wait between rounds.
var ParkPosition = object.Vec3{Y: -10}

// Scheduler defers continuations by simulated seconds. It returns false
// when key already has a pending continuation.
type Scheduler interface {
	After(key string, seconds float64, fn func()) bool
}

// Rand supplies uniform values in [0, 1) to the launcher and opponent.
type Rand interface {
	Float64() float64
}

// Match is the match coordinator. It is not safe for concurrent use; every
// method must run on the loop that advances the scheduler.
type Match struct {
	id     string
	cfg    Config
	space  physics.Space
	clock  Scheduler
	emit   event.Emitter
	logger *log.Logger

	launcher  *throw.Machine
	model     *opponent.Model
	detectors map[int]*settle.Detector

	target *object.Ball
	teams  [2][]*object.Ball

	state      object.GameState
	current    object.Team
	difficulty object.Difficulty
	round      int
	scores     [2]int
	thrown     [2][]*object.Ball
	inFlight   *object.Ball
	last       *object.RoundResult
	lastThrow  *throw.Release
	winner     object.Team

	entering bool
	pending  *object.GameState
}

// New creates a match in WaitingToStart. Every ball returned by Balls must
// have a body in space before Start is called.
func New(cfg Config, space physics.Space, clock Scheduler, emit event.Emitter, rng Rand, logger *log.Logger) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("match config: %w", err)
	}
	if space == nil || clock == nil {
		return nil, fmt.Errorf("match: physics space and scheduler are required")
	}
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.NewString()
	logger = logger.With("match", id[:8])

	m := &Match{
		id:         id,
		cfg:        cfg,
		space:      space,
		clock:      clock,
		emit:       emit,
		logger:     logger.With("component", "match"),
		detectors:  make(map[int]*settle.Detector),
		state:      object.StateWaitingToStart,
		current:    object.TeamA,
		difficulty: cfg.Difficulty,
		winner:     object.TeamNone,
	}
	m.target, m.teams = object.Rack(cfg.BallsPerTeam)
	for _, b := range m.Balls() {
		m.detectors[b.ID] = settle.New(cfg.Settle, logger)
	}

	var src opponent.Source
	var tr throw.Rand
	if rng != nil {
		src, tr = rng, rng
	}
	m.launcher = throw.New(cfg.Throw, space, emit, m, tr, logger)
	m.launcher.OnThrown(m.onThrown)
	m.model = opponent.New(cfg.Opponent, src, logger)
	return m, nil
}

// ID returns the match's unique id.
func (m *Match) ID() string { return m.id }

// Config returns the settings the match was built with.
func (m *Match) Config() Config { return m.cfg }

// State returns the current match state.
func (m *Match) State() object.GameState { return m.state }

// Current returns the team to throw.
func (m *Match) Current() object.Team { return m.current }

// Scores returns both teams' match scores.
func (m *Match) Scores() [2]int { return m.scores }

// Round returns the 1-based round number, 0 before the first start.
func (m *Match) Round() int { return m.round }

// Difficulty returns the opponent difficulty.
func (m *Match) Difficulty() object.Difficulty { return m.difficulty }

// Winner returns the winning team, or TeamNone before GameOver.
func (m *Match) Winner() object.Team { return m.winner }

// Launcher exposes the throw machine for previews.
func (m *Match) Launcher() *throw.Machine { return m.launcher }

// Controller returns who plays team t.
func (m *Match) Controller(t object.Team) object.Controller {
	if !t.Valid() {
		return object.Human
	}
	return m.cfg.Controllers[t]
}

// Target returns the target ball.
func (m *Match) Target() *object.Ball { return m.target }

// Balls returns every ball in id order, target first.
func (m *Match) Balls() []*object.Ball {
	balls := make([]*object.Ball, 0, 1+2*m.cfg.BallsPerTeam)
	balls = append(balls, m.target)
	for _, team := range object.Teams {
		balls = append(balls, m.teams[team]...)
	}
	return balls
}

// InFlight returns the launched, unsettled ball, if any.
func (m *Match) InFlight() *object.Ball { return m.inFlight }

// SetDifficulty changes the opponent tier. Only honoured before the match
// starts.
func (m *Match) SetDifficulty(d object.Difficulty) bool {
	if m.state != object.StateWaitingToStart {
		m.logger.Warn("difficulty change ignored", "state", m.state)
		return false
	}
	m.difficulty = d
	m.logger.Debug("difficulty set", "difficulty", d)
	return true
}

// Start begins the match from WaitingToStart.
func (m *Match) Start() bool {
	if m.state != object.StateWaitingToStart {
		m.logger.Warn("start ignored", "state", m.state)
		return false
	}
	m.scores = [2]int{}
	m.round = 1
	m.last = nil
	m.winner = object.TeamNone
	m.send(event.Score(m.scores))
	m.logger.Info("match started",
		"team_a", m.cfg.Controllers[object.TeamA],
		"team_b", m.cfg.Controllers[object.TeamB],
		"difficulty", m.difficulty)
	m.startRound()
	return true
}

// Restart returns a finished match to WaitingToStart and starts it again.
func (m *Match) Restart() bool {
	if m.state != object.StateGameOver {
		m.logger.Warn("restart ignored", "state", m.state)
		return false
	}
	m.setState(object.StateWaitingToStart)
	return m.Start()
}

// Update runs the frame-rate part of the match. Human input is only fed to
// the launcher while a human-controlled team is throwing.
func (m *Match) Update(dt float64, in throw.Controls) {
	if !m.throwing() || m.Controller(m.current) != object.Human {
		return
	}
	m.launcher.Update(dt, in)
}

// SampleSettle advances settle detection by one fixed tick.
func (m *Match) SampleSettle(dt float64) {
	if m.inFlight == nil {
		return
	}
	if d, ok := m.detectors[m.inFlight.ID]; ok {
		d.Sample(dt)
	}
}

// Track implements throw.Tracker.
func (m *Match) Track(ball *object.Ball, body physics.Body) {
	d, ok := m.detectors[ball.ID]
	if !ok {
		m.logger.Warn("track: unknown ball", "ball", ball)
		return
	}
	d.Track(ball.ID, body, func(recovered bool) {
		m.onSettled(ball, recovered)
	})
}

func (m *Match) throwing() bool {
	return m.state == object.StateThrowingTarget || m.state == object.StateAiming
}

func (m *Match) send(e event.Event) {
	if m.emit != nil {
		m.emit.Emit(e)
	}
}

// setState switches state and runs entry handlers. A handler may return a
// follow-up state, which is applied in the same loop rather than by
// recursion. Calls made while a handler is running are queued.
func (m *Match) setState(s object.GameState) {
	if m.entering {
		if m.pending != nil {
			m.logger.Warn("state change dropped", "pending", *m.pending, "requested", s)
			return
		}
		m.pending = &s
		return
	}
	m.entering = true
	defer func() { m.entering = false }()

	for {
		prev := m.state
		m.state = s
		m.logger.Debug("state", "from", prev, "to", s, "round", m.round)
		m.send(event.State(s, m.round))

		next, ok := m.enter(s)
		if !ok && m.pending != nil {
			next, ok = *m.pending, true
		}
		m.pending = nil
		if !ok {
			return
		}
		s = next
	}
}

func (m *Match) enter(s object.GameState) (object.GameState, bool) {
	switch s {
	case object.StateThrowingTarget:
		m.armTurn(m.target)
	case object.StateAiming:
		ball := m.nextBall(m.current)
		if ball == nil {
			return object.StateScoring, true
		}
		m.armTurn(ball)
	case object.StateScoring:
		m.scoreRound()
	case object.StateRoundOver:
		m.later(TimerRound, m.cfg.RoundDelay, object.StateRoundOver, func() {
			m.round++
			m.startRound()
		})
	case object.StateGameOver:
		m.winner = object.TeamB
		if m.scores[object.TeamA] >= m.cfg.WinScore {
			m.winner = object.TeamA
		}
		m.send(event.Winner(m.winner, m.scores))
		m.logger.Info("game over", "winner", m.winner, "score_a", m.scores[object.TeamA], "score_b", m.scores[object.TeamB])
	}
	return s, false
}

// later schedules fn on key, running it only if the match is still in
// state when it fires.
func (m *Match) later(key string, seconds float64, state object.GameState, fn func()) {
	ok := m.clock.After(key, seconds, func() {
		if m.state != state {
			m.logger.Warn("stale continuation", "timer", key, "want", state, "state", m.state)
			return
		}
		fn()
	})
	if !ok {
		m.logger.Warn("continuation already pending", "timer", key)
	}
}

func (m *Match) startRound() {
	m.thrown = [2][]*object.Ball{}
	m.inFlight = nil
	m.lastThrow = nil
	m.current = object.TeamA
	for _, b := range m.Balls() {
		b.Reset()
		body, ok := m.space.Body(b.ID)
		if !ok {
			m.logger.Warn("round reset: ball has no body", "ball", b)
			continue
		}
		body.SetKinematic(true)
		body.Teleport(ParkPosition)
	}
	m.logger.Debug("round start", "round", m.round)
	m.setState(object.StateThrowingTarget)
}

func (m *Match) nextBall(t object.Team) *object.Ball {
	n := len(m.thrown[t])
	if n >= len(m.teams[t]) {
		return nil
	}
	return m.teams[t][n]
}

// armTurn places ball at the throw origin, arms the launcher and hands the
// turn to the current team.
func (m *Match) armTurn(ball *object.Ball) {
	body, ok := m.space.Body(ball.ID)
	if !ok {
		m.logger.Warn("turn: ball has no body", "ball", ball)
		return
	}
	radius := physics.BallRadius
	if ball.Target {
		radius = physics.TargetRadius
	}
	body.SetKinematic(true)
	body.Teleport(m.cfg.Court.ThrowOrigin(radius))
	if !m.launcher.Arm(ball, ball.Target) {
		return
	}
	m.send(event.Turn(m.current))
	m.logger.Debug("turn", "team", m.current, "ball", ball, "controller", m.Controller(m.current))

	if m.Controller(m.current) == object.Computer {
		state := m.state
		m.later(TimerThink, m.cfg.Opponent.ThinkDelay, state, func() { m.computerThrow(ball) })
	}
}

func (m *Match) computerThrow(ball *object.Ball) {
	if m.launcher.Armed() != ball {
		m.logger.Warn("computer throw: ball no longer armed", "ball", ball)
		return
	}
	lo, hi := m.launcher.PowerRange()
	origin := m.launcher.Origin()
	var cmd object.ThrowCommand
	if ball.Target {
		cmd = m.model.DecideTarget(m.difficulty, origin, lo, hi)
	} else {
		pos, ok := m.position(m.target)
		if !ok {
			return
		}
		cmd = m.model.Decide(m.difficulty, origin, pos, lo, hi)
	}
	m.launcher.ThrowAI(cmd)
}

func (m *Match) onThrown(rel throw.Release) {
	if !m.throwing() {
		m.logger.Warn("throw outside a turn", "state", m.state, "ball", rel.Ball)
		return
	}
	if m.inFlight != nil {
		m.logger.Warn("throw while another ball is in flight", "in_flight", m.inFlight, "ball", rel.Ball)
		return
	}
	rel.Ball.Thrown = true
	rel.Ball.Settled = false
	m.inFlight = rel.Ball
	m.lastThrow = &rel
	m.logger.Debug("thrown", "ball", rel.Ball, "angle", rel.Final, "power", rel.Power, "quality", rel.Quality)
	m.setState(object.StateBallInMotion)
}

func (m *Match) onSettled(ball *object.Ball, recovered bool) {
	if m.inFlight != ball {
		m.logger.Warn("settle for a ball not in flight", "ball", ball)
		return
	}
	ball.Settled = true
	m.inFlight = nil
	if m.state != object.StateBallInMotion {
		m.logger.Warn("settle outside ball in motion", "ball", ball, "state", m.state)
		return
	}
	m.logger.Debug("settled", "ball", ball, "recovered", recovered)

	if ball.Target {
		m.current = object.TeamB
		m.setState(object.StateAiming)
		return
	}

	m.thrown[m.current] = append(m.thrown[m.current], ball)
	counts := m.thrownCounts()
	if counts[object.TeamA] >= m.cfg.BallsPerTeam && counts[object.TeamB] >= m.cfg.BallsPerTeam {
		m.setState(object.StateScoring)
		return
	}
	m.current = NextTeam(counts, m.closest(), m.cfg.BallsPerTeam, m.cfg.TurnTieBreak)
	m.setState(object.StateAiming)
}

func (m *Match) scoreRound() {
	targetPos, _ := m.position(m.target)
	result := scoring.Score(targetPos, m.thrownPositions(), m.cfg.ScoreTieBreak)
	m.scores[result.Team] += result.Points
	m.last = &result
	m.send(event.Score(m.scores))
	m.send(event.Round(result, m.round))
	m.logger.Info("round scored", "round", m.round, "team", result.Team, "points", result.Points,
		"score_a", m.scores[object.TeamA], "score_b", m.scores[object.TeamB])

	m.later(TimerScore, m.cfg.ScoringDelay, object.StateScoring, func() {
		if m.scores[object.TeamA] >= m.cfg.WinScore || m.scores[object.TeamB] >= m.cfg.WinScore {
			m.setState(object.StateGameOver)
			return
		}
		m.setState(object.StateRoundOver)
	})
}

func (m *Match) position(b *object.Ball) (object.Vec3, bool) {
	body, ok := m.space.Body(b.ID)
	if !ok {
		m.logger.Warn("ball has no body", "ball", b)
		return object.Vec3{}, false
	}
	return body.Position(), true
}

// Standings ranks this round's settled balls by distance to the target,
// nearest first. Balls without a body are left out.
func (m *Match) Standings() []scoring.Entry {
	target, ok := m.space.Body(m.target.ID)
	if !ok {
		return nil
	}
	var teams [2][]object.Vec3
	for _, team := range object.Teams {
		for _, b := range m.thrown[team] {
			if body, ok := m.space.Body(b.ID); ok {
				teams[team] = append(teams[team], body.Position())
			}
		}
	}
	return scoring.Ranked(target.Position(), teams)
}

func (m *Match) thrownCounts() [2]int {
	return [2]int{len(m.thrown[object.TeamA]), len(m.thrown[object.TeamB])}
}

func (m *Match) thrownPositions() [2][]object.Vec3 {
	var out [2][]object.Vec3
	for _, team := range object.Teams {
		for _, b := range m.thrown[team] {
			if pos, ok := m.position(b); ok {
				out[team] = append(out[team], pos)
			}
		}
	}
	return out
}

func (m *Match) closest() [2]float64 {
	targetPos, ok := m.position(m.target)
	if !ok {
		return [2]float64{math.Inf(1), math.Inf(1)}
	}
	return scoring.Closest(targetPos, m.thrownPositions())
}
