// Package draw renders the match to a terminal: chunked frame output, the
// top-down court board and the HUD widgets.
package draw

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tomz197/bocce/internal/object"
)

// Palette holds the styles for one output. SSH sessions each get their own
// renderer, so each builds its own palette.
type Palette struct {
	Floor  lipgloss.Style
	Mark   lipgloss.Style
	Aim    lipgloss.Style
	Target lipgloss.Style
	TeamA  lipgloss.Style
	TeamB  lipgloss.Style
	Frame  lipgloss.Style
	Title  lipgloss.Style
	Dim    lipgloss.Style
	Band   lipgloss.Style
	Bar    lipgloss.Style
}

// NewPalette builds the styles on r. A nil r uses the default renderer.
func NewPalette(r *lipgloss.Renderer) Palette {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	floor := lipgloss.Color("#2E5E3A")
	return Palette{
		Floor:  r.NewStyle().Background(floor),
		Mark:   r.NewStyle().Background(floor).Foreground(lipgloss.Color("#8FBF8F")),
		Aim:    r.NewStyle().Background(floor).Foreground(lipgloss.Color("#F5F5DC")),
		Target: r.NewStyle().Background(floor).Foreground(lipgloss.Color("#FFFFFF")).Bold(true),
		TeamA:  r.NewStyle().Background(floor).Foreground(lipgloss.Color("#E74C3C")).Bold(true),
		TeamB:  r.NewStyle().Background(floor).Foreground(lipgloss.Color("#3498DB")).Bold(true),
		Frame: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#A0522D")),
		Title: r.NewStyle().Bold(true),
		Dim:   r.NewStyle().Faint(true),
		Band:  r.NewStyle().Foreground(lipgloss.Color("#2ECC71")),
		Bar:   r.NewStyle().Foreground(lipgloss.Color("#F1C40F")),
	}
}

// Team returns the text style for team t.
func (p Palette) Team(t object.Team) lipgloss.Style {
	if t == object.TeamB {
		return p.TeamB.UnsetBackground()
	}
	return p.TeamA.UnsetBackground()
}

func (p Palette) ink(i Ink) lipgloss.Style {
	switch i {
	case InkMark:
		return p.Mark
	case InkAim:
		return p.Aim
	case InkTarget:
		return p.Target
	case InkTeamA:
		return p.TeamA
	case InkTeamB:
		return p.TeamB
	}
	return p.Floor
}

// PowerBar renders a width-cell meter filled to n (0-1) with the sweet spot
// band [lo, hi] marked underneath.
func PowerBar(p Palette, width int, n, lo, hi float64) string {
	if width < 1 {
		width = 1
	}
	var bar, band strings.Builder
	for i := 0; i < width; i++ {
		f := (float64(i) + 0.5) / float64(width)
		if f <= n {
			bar.WriteRune('█')
		} else {
			bar.WriteRune('░')
		}
		if f >= lo && f <= hi {
			band.WriteRune('▀')
		} else {
			band.WriteRune(' ')
		}
	}
	return p.Bar.Render(bar.String()) + "\n" + p.Band.Render(band.String())
}
