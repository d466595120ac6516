// Package sched drives simulated time for a match: a fixed-rate tick for
// physics sampling, a variable frame tick for everything else, and keyed
// deferred continuations.
package sched

import (
	"sort"

	"github.com/charmbracelet/log"
)

// DefaultMaxSteps caps fixed ticks per Advance so a stalled frame cannot
// spiral into an ever-growing catch-up.
const DefaultMaxSteps = 8

const epsilon = 1e-9

// TickFunc receives the elapsed simulated seconds for one tick.
type TickFunc func(dt float64)

type timer struct {
	key string
	due float64
	seq int
	fn  func()
}

// Clock is a single-goroutine simulated clock. Nothing in it sleeps; the
// engine loop feeds it real frame durations and tests feed it fixed ones.
type Clock struct {
	step     float64
	maxSteps int
	now      float64
	acc      float64
	seq      int

	fixed  []TickFunc
	frame  []TickFunc
	timers map[string]*timer

	logger *log.Logger
}

// New creates a clock whose fixed tick is step seconds long.
func New(step float64, logger *log.Logger) *Clock {
	if logger == nil {
		logger = log.Default()
	}
	return &Clock{
		step:     step,
		maxSteps: DefaultMaxSteps,
		timers:   make(map[string]*timer),
		logger:   logger.With("component", "sched"),
	}
}

// SetMaxSteps changes the per-Advance fixed tick cap. n < 1 is ignored.
func (c *Clock) SetMaxSteps(n int) {
	if n >= 1 {
		c.maxSteps = n
	}
}

// Step returns the fixed tick length in seconds.
func (c *Clock) Step() float64 { return c.step }

// Now returns simulated seconds since the clock was created.
func (c *Clock) Now() float64 { return c.now }

// OnFixed subscribes fn to the fixed tick. Subscribers run in registration
// order.
func (c *Clock) OnFixed(fn TickFunc) {
	c.fixed = append(c.fixed, fn)
}

// OnFrame subscribes fn to the variable frame tick.
func (c *Clock) OnFrame(fn TickFunc) {
	c.frame = append(c.frame, fn)
}

// After schedules fn to run once, seconds from now, under key. Only one
// continuation per key may be pending: a second request while one is
// outstanding is rejected and After returns false. Continuations cannot be
// cancelled.
func (c *Clock) After(key string, seconds float64, fn func()) bool {
	if _, busy := c.timers[key]; busy {
		c.logger.Warn("continuation already pending", "key", key)
		return false
	}
	if seconds < 0 {
		seconds = 0
	}
	c.seq++
	c.timers[key] = &timer{key: key, due: c.now + seconds, seq: c.seq, fn: fn}
	return true
}

// Pending reports whether a continuation is scheduled under key.
func (c *Clock) Pending(key string) bool {
	_, ok := c.timers[key]
	return ok
}

// Advance moves simulated time forward by frame seconds. It runs as many
// fixed ticks as have accumulated (at most the step cap), then the frame
// subscribers, then every continuation that has come due, earliest first.
// Continuations scheduled while firing wait for a later Advance.
func (c *Clock) Advance(frame float64) {
	if frame < 0 {
		frame = 0
	}
	c.now += frame

	if c.step > 0 {
		c.acc += frame
		steps := 0
		for c.acc+epsilon >= c.step && steps < c.maxSteps {
			for _, fn := range c.fixed {
				fn(c.step)
			}
			c.acc -= c.step
			steps++
		}
		if steps == c.maxSteps && c.acc >= c.step {
			c.logger.Debug("dropping fixed ticks", "behind", c.acc)
			c.acc = 0
		}
		if c.acc < 0 {
			c.acc = 0
		}
	}

	for _, fn := range c.frame {
		fn(frame)
	}

	c.fireDue()
}

func (c *Clock) fireDue() {
	var due []*timer
	for _, t := range c.timers {
		if t.due <= c.now+epsilon {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	// Free each slot before running so a continuation may re-arm its own key.
	for _, t := range due {
		delete(c.timers, t.key)
	}
	for _, t := range due {
		t.fn()
	}
}
