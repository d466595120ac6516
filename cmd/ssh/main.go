package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/muesli/termenv"
	"github.com/tomz197/bocce/internal/config"
	"github.com/tomz197/bocce/internal/draw"
	"github.com/tomz197/bocce/internal/loop/client"
	"github.com/tomz197/bocce/internal/loop/server"
	"github.com/tomz197/bocce/internal/match"
	"github.com/tomz197/bocce/internal/spectate"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	shutdownTimeout    = 15 * time.Second
)

type app struct {
	logger   *log.Logger
	registry *server.Registry
	hub      *spectate.Hub // nil when spectating is off
	match    match.Config
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "bocce-ssh"})
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal("failed to load .env", "err", err)
	}
	if lvl, err := log.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	spectateAddr := config.GetEnv("SPECTATE_ADDR", "")
	logger.Info("ssh config", "host", host, "port", port, "host_key", hostKeyPath, "spectate", spectateAddr)

	cfg, err := match.FromEnv()
	if err != nil {
		logger.Fatal("invalid match settings", "err", err)
	}

	a := &app{
		logger:   logger,
		registry: server.NewRegistry(logger),
		match:    cfg,
	}

	var web *http.Server
	if spectateAddr != "" {
		a.hub = spectate.NewHub(originPatterns(config.GetEnv("SPECTATE_ORIGINS", "")), logger)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", a.hub.HandleWS)
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			s := a.hub.Stats()
			fmt.Fprintf(w, "sessions %d\nviewers %d\nviewer_connections %d\ndropped_frames %d\n",
				a.registry.Count(), s.Viewers, s.TotalConnections, s.Dropped)
		})
		web = &http.Server{Addr: spectateAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("starting spectator endpoint", "addr", spectateAddr)
			if err := web.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("spectator server error", "err", err)
			}
		}()
	}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			a.gameMiddleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	// Let players see the notice and leave before the listener goes away.
	if !a.registry.Shutdown(shutdownTimeout) {
		logger.Warn("sessions still open at shutdown", "count", a.registry.Count())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if web != nil {
		a.hub.CloseAll()
		if err := web.Shutdown(ctx); err != nil {
			logger.Error("spectator shutdown error", "err", err)
		}
	}
	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

func originPatterns(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// gameMiddleware runs one match per SSH session.
func (a *app) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger := a.logger.With("user", sess.User())
		logger.Info("new session", "term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		// The session is a remote PTY, so detect nothing and force 256 colours.
		renderer := lipgloss.NewRenderer(sess)
		renderer.SetColorProfile(termenv.ANSI256)

		opts := client.Options{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sess.User(),
			Match:        a.match,
			Renderer:     renderer,
			Registry:     a.registry,
			Logger:       logger,
		}
		if a.hub != nil {
			opts.Observe = a.hub.Observer
		}

		c, err := client.NewClient(bufio.NewReader(sess), sess, opts)
		if err != nil {
			logger.Error("failed to start session", "err", err)
			fmt.Fprintln(sess, "Error: could not start a match")
			return
		}
		if err := c.Run(); err != nil {
			logger.Error("game error", "err", err)
		}
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
