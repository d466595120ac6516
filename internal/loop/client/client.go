// Package client runs one play session: it owns a match with its physics
// world and clock, reads the session's keys and renders every frame.
package client

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/draw"
	"github.com/tomz197/bocce/internal/event"
	"github.com/tomz197/bocce/internal/input"
	"github.com/tomz197/bocce/internal/loop/config"
	"github.com/tomz197/bocce/internal/loop/server"
	"github.com/tomz197/bocce/internal/match"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/physics"
	"github.com/tomz197/bocce/internal/sched"
	"github.com/tomz197/bocce/internal/throw"
)

// Options configures a session.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Match        match.Config
	Renderer     *lipgloss.Renderer
	Registry     *server.Registry // optional; set for multi-session servers
	Logger       *log.Logger

	// Observe, when set, returns an extra observer for the session's match
	// events, e.g. a spectator feed.
	Observe func(matchID string) event.Observer

	// Rand drives throw spread and opponent variance. Defaults to
	// math/rand/v2.
	Rand match.Rand
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Client handles one session's match, input and rendering.
type Client struct {
	registry     *server.Registry
	handle       *server.Handle
	state        *ClientState
	match        *match.Match
	world        *physics.World
	clock        *sched.Clock
	queue        *event.Queue
	hud          *HUD
	board        *draw.Board
	palette      draw.Palette
	chunkWriter  *draw.ChunkWriter
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	username     string
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger

	controls throw.Controls // fed to the match on the frame tick
}

// NewClient creates a session reading keys from r and drawing to w.
func NewClient(r *bufio.Reader, w io.Writer, opts Options) (*Client, error) {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = globalRand{}
	}
	if opts.Username != "" {
		logger = logger.With("user", opts.Username)
	}

	c := &Client{
		registry:     opts.Registry,
		state:        NewClientState(),
		hud:          NewHUD(config.EventLogLines),
		palette:      draw.NewPalette(opts.Renderer),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		writer:       w,
		lastInput:    time.Now(),
		username:     opts.Username,
		termSizeFunc: termSizeFunc,
		logger:       logger,
	}

	cfg := opts.Match
	c.world = physics.NewWorld(cfg.Court, logger)
	c.clock = sched.New(config.FixedTick, logger)
	c.queue = event.NewQueue(c.hud)

	m, err := match.New(cfg, c.world, c.clock, c.queue, rng, logger)
	if err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}
	c.match = m
	for _, b := range m.Balls() {
		c.world.AddBall(b)
	}
	if opts.Observe != nil {
		c.queue.Subscribe(opts.Observe(m.ID()))
	}

	c.clock.OnFixed(c.world.Step)
	c.clock.OnFixed(m.SampleSettle)
	c.clock.OnFrame(func(dt float64) { m.Update(dt, c.controls) })

	c.board = draw.NewBoard(config.BoardCols, config.BoardRows, cfg.Court.Length, cfg.Court.Width)

	if c.registry != nil {
		c.handle = c.registry.Register(opts.Username)
		c.registry.SetMatch(c.handle.ID, m.ID())
	}
	if r != nil {
		c.inputStream = input.StartStream(r)
	}
	return c, nil
}

// Match returns the session's match.
func (c *Client) Match() *match.Match { return c.match }

// Run starts the client loop. Blocks until the player quits, goes idle or
// the server shuts down.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	if c.handle != nil {
		defer c.registry.Unregister(c.handle.ID)
	}

	lastTime := time.Now()
	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()

		if err := c.frame(c.state.delta.Seconds()); err != nil {
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.logger.Info("session ended", "match", c.match.ID(), "state", c.match.State(), "scores", c.match.Scores())
	draw.ClearScreen(c.writer)
	return nil
}

// frame runs one update and draw of dt seconds.
func (c *Client) frame(dt float64) error {
	dt = min(dt, config.MaxFrameSeconds)
	c.updateScreen()
	switch c.state.Screen {
	case ScreenMatch:
		c.updateMatch(dt)
	case ScreenShutdown:
		c.updateShutdownState(dt)
	}
	return c.drawFrame()
}

// processInput reads keys and tracks inactivity.
func (c *Client) processInput() {
	if c.inputStream == nil {
		return
	}
	c.state.Input = input.ReadInput(c.inputStream)

	idle := time.Since(c.lastInput).Seconds()
	switch {
	case len(c.state.Input.Pressed) > 0:
		c.lastInput = time.Now()
		c.state.isInactive = false
	case idle > config.InactivityDisconnectUser:
		c.logger.Info("disconnecting idle session")
		c.state.Running = false
	case idle > config.InactivityWarnUser:
		c.state.isInactive = true
	}

	if c.state.Input.Quit {
		c.state.Running = false
	}
}

// processServerEvents handles notices from the registry.
func (c *Client) processServerEvents() {
	if c.handle == nil {
		return
	}
	for {
		select {
		case n, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			if n.Type == server.NoticeShutdown {
				c.state.Screen = ScreenShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen tracks terminal resizes, shrinking the board to fit.
func (c *Client) updateScreen() {
	w, h, err := c.termSizeFunc()
	if err != nil {
		return
	}
	size := [2]int{w, h}
	if size == c.state.prevTermSize {
		return
	}
	c.state.prevTermSize = size
	cols := min(config.BoardCols, w-2)
	c.board.Resize(cols, config.BoardRows)
	c.chunkWriter.SetOffset(max(0, (min(w, config.MaxTermWidth)-cols-2)/2), 0)
	c.chunkWriter.WriteString("\033[H\033[2J")
}

// updateMatch applies this frame's keys and advances the match clock.
// Keys that start or restart a match are not also fed to the launcher.
func (c *Client) updateMatch(dt float64) {
	in := c.state.Input
	c.controls = throw.Controls{}
	switch c.match.State() {
	case object.StateWaitingToStart:
		if d, ok := in.DifficultyChoice(); ok {
			c.match.SetDifficulty(d)
		}
		if in.Confirm {
			c.match.Start()
		}
	case object.StateGameOver:
		if in.Restart || in.Confirm {
			c.match.Restart()
		}
	default:
		c.controls = in.Controls()
	}
	c.advance(dt)
}

func (c *Client) advance(dt float64) {
	c.clock.Advance(dt)
	c.queue.Flush()
}

// updateShutdownState keeps the match running behind the countdown.
func (c *Client) updateShutdownState(dt float64) {
	c.controls = throw.Controls{}
	c.advance(dt)
	c.state.shutdownTimer -= dt
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
