// Package loop runs a single local play session against the terminal.
package loop

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/loop/client"
	"github.com/tomz197/bocce/internal/match"
)

// Run plays one match on r and w until the player quits. Multi-session
// servers build clients directly so they can share a registry.
func Run(r *bufio.Reader, w io.Writer, cfg match.Config, logger *log.Logger) error {
	c, err := client.NewClient(r, w, client.Options{
		Match:    cfg,
		Renderer: lipgloss.NewRenderer(w),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return c.Run()
}
