package main

import (
	"bufio"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/config"
	"github.com/tomz197/bocce/internal/loop"
	"github.com/tomz197/bocce/internal/match"
	"golang.org/x/term"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("failed to load .env", "err", err)
	}

	// The terminal belongs to the game, so logs only go to a file when asked.
	var out io.Writer = io.Discard
	if path := config.GetEnv("BOCCE_LOG_FILE", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal("failed to open log file", "path", path, "err", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.NewWithOptions(out, log.Options{ReportTimestamp: true, Prefix: "bocce"})
	if lvl, err := log.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	cfg, err := match.FromEnv()
	if err != nil {
		log.Fatal("invalid match settings", "err", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatal("failed to enable raw mode", "err", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	reader := bufio.NewReader(os.Stdin)
	if err := loop.Run(reader, os.Stdout, cfg, logger); err != nil {
		_ = term.Restore(fd, oldState)
		log.Fatal("game error", "err", err)
	}
}
