package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tomz197/bocce/internal/draw"
	"github.com/tomz197/bocce/internal/loop/config"
	"github.com/tomz197/bocce/internal/match"
	"github.com/tomz197/bocce/internal/object"
)

var titleArt = []string{
	`  ___  ___   ___ ___ ___ `,
	` | _ )/ _ \ / __/ __| __|`,
	` | _ \ (_) | (_| (__| _| `,
	` |___/\___/ \___\___|___|`,
}

var controlLines = []string{
	"A D / < >  . . Move / steer",
	"SPACE  . . . . Confirm step",
	"1 2 3  . . . . Difficulty",
	"R  . . . . . . Play again",
	"Q  . . . . . . Quit",
}

// drawFrame renders the current frame.
func (c *Client) drawFrame() error {
	state := c.match.State()
	if c.state.Screen != c.state.prevScreen || state != c.state.prevState || c.state.isInactive != c.state.wasInactive {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.state.prevScreen = c.state.Screen
		c.state.prevState = state
		c.state.wasInactive = c.state.isInactive
	}

	var view string
	switch {
	case c.state.Screen == ScreenShutdown:
		view = c.shutdownView()
	case c.state.isInactive:
		view = c.inactivityView()
	case state == object.StateWaitingToStart:
		view = c.startView()
	default:
		view = c.matchView()
	}
	c.chunkWriter.WriteBlock(1, 1, view)
	return c.chunkWriter.Flush()
}

func (c *Client) teamLabel(t object.Team, controllers [2]object.Controller) string {
	if !t.Valid() {
		return ""
	}
	label := t.String()
	if controllers[t] == object.Human {
		label += " (you)"
	} else {
		label += " (cpu)"
	}
	return c.palette.Team(t).Render(label)
}

func (c *Client) startView() string {
	p := c.palette
	lines := []string{p.Title.Render(strings.Join(titleArt, "\n")), "", p.Dim.Render("~ lawn bowls for your terminal ~"), ""}
	lines = append(lines, p.Title.Render("Controls"))
	lines = append(lines, controlLines...)

	var tiers []string
	for _, d := range []object.Difficulty{object.Easy, object.Medium, object.Hard} {
		label := fmt.Sprintf("%d %s", int(d)+1, d)
		if d == c.match.Difficulty() {
			label = p.Bar.Render("[" + label + "]")
		} else {
			label = p.Dim.Render(" " + label + " ")
		}
		tiers = append(tiers, label)
	}
	lines = append(lines, "", "Difficulty: "+strings.Join(tiers, " "))

	cfg := c.match.Config()
	lines = append(lines, fmt.Sprintf("First to %d, %d balls each", cfg.WinScore, cfg.BallsPerTeam))
	if time.Now().UnixMilli()/600%2 == 0 {
		lines = append(lines, "", ">>  Press SPACE to Start  <<")
	} else {
		lines = append(lines, "", "")
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (c *Client) matchView() string {
	snap := c.match.Snapshot()
	p := c.palette
	h := c.hud

	score := fmt.Sprintf("Round %d   %s %d : %d %s   first to %d",
		max(h.Round, 1),
		c.teamLabel(object.TeamA, snap.Controllers), h.Scores[object.TeamA],
		h.Scores[object.TeamB], c.teamLabel(object.TeamB, snap.Controllers),
		snap.WinScore)

	lines := []string{score, c.renderBoard(snap)}
	lines = append(lines, c.statusLines(snap)...)
	lines = append(lines, "")
	for _, l := range h.Log {
		lines = append(lines, p.Dim.Render(l))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (c *Client) renderBoard(snap match.Snapshot) string {
	c.board.Clear()
	launcher := c.match.Launcher()
	armed := launcher.Armed()
	human := snap.Current.Valid() && snap.Controllers[snap.Current] == object.Human
	if armed != nil && human && snap.Step >= object.StepPosition && snap.Step <= object.StepPower {
		c.board.Path(launcher.Trajectory(config.PathPoints, config.PathStep), '.', draw.InkAim)
	}
	for _, b := range snap.Balls {
		if !b.Thrown && (armed == nil || armed.ID != b.ID) {
			continue
		}
		if b.Target {
			c.board.Plot(b.Position, 'o', draw.InkTarget)
			continue
		}
		c.board.Plot(b.Position, '●', draw.TeamInk(b.Team))
	}
	return c.board.Render(c.palette)
}

func (c *Client) statusLines(snap match.Snapshot) []string {
	p := c.palette
	h := c.hud
	turn := c.teamLabel(snap.Current, snap.Controllers)
	human := snap.Current.Valid() && snap.Controllers[snap.Current] == object.Human

	switch snap.State {
	case object.StateThrowingTarget, object.StateAiming:
		what := "ball"
		if snap.State == object.StateThrowingTarget {
			what = "target ball"
		}
		status := fmt.Sprintf("%s throws the %s (%d/%d thrown)", turn, what,
			snap.Thrown[snap.Current], snap.BallsPerTeam)
		lines := []string{status}
		if snap.State == object.StateAiming {
			lines = append(lines, c.standingLine())
		}
		if !human {
			return append(lines, p.Dim.Render("thinking..."))
		}
		switch h.Step {
		case object.StepPosition:
			lines = append(lines, "Position: A/D to slide along the line, SPACE to lock")
		case object.StepAim:
			lines = append(lines, fmt.Sprintf("Aim: %+.0f°  SPACE to lock", snap.Angle))
		case object.StepPower:
			bar := draw.PowerBar(p, config.PowerBarWidth, h.Power, h.SweetLo, h.SweetHi)
			lines = append(lines, fmt.Sprintf("Power: %.1f  SPACE inside the green band", snap.Power), bar)
		}
		return lines
	case object.StateBallInMotion:
		return []string{"Ball rolling...", c.standingLine()}
	case object.StateScoring, object.StateRoundOver:
		var lines []string
		if snap.State == object.StateScoring {
			lines = append(lines, c.standingLine())
		}
		if h.Last != nil {
			lines = append(lines, fmt.Sprintf("Round %d to %s: +%d", h.Round,
				p.Team(h.Last.Team).Render(h.Last.Team.String()), h.Last.Points))
		}
		return lines
	case object.StateGameOver:
		winner := p.Team(h.Winner).Render(h.Winner.String())
		return []string{
			p.Title.Render(fmt.Sprintf("%s wins %d : %d", winner, h.Scores[object.TeamA], h.Scores[object.TeamB])),
			"Press R or SPACE to play again, Q to quit",
		}
	}
	return nil
}

// standingLine says which team is holding the point and by how much.
func (c *Client) standingLine() string {
	hold, ok := HoldingFrom(c.match.Standings())
	if !ok {
		return c.palette.Dim.Render("No balls down yet")
	}
	return standingText(c.palette, hold)
}

func standingText(p draw.Palette, hold Holding) string {
	team := p.Team(hold.Team).Render(hold.Team.String())
	if hold.Lone {
		return fmt.Sprintf("%s holds the point, %d ball(s) down", team, hold.Points)
	}
	return fmt.Sprintf("%s holds %d by %.2f m", team, hold.Points, hold.Margin)
}

func (c *Client) inactivityView() string {
	left := int(config.InactivityDisconnectUser - time.Since(c.lastInput).Seconds())
	return lipgloss.JoinVertical(lipgloss.Center,
		c.palette.Title.Render("INACTIVITY WARNING"),
		"",
		fmt.Sprintf("You will be disconnected in %d seconds.", max(left, 0)),
		"",
		"Press any key to continue",
	)
}

func (c *Client) shutdownView() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		c.palette.Title.Render("SERVER SHUTTING DOWN"),
		"",
		fmt.Sprintf("Disconnecting in %d seconds. Thanks for playing!", max(int(c.state.shutdownTimer), 0)),
	)
}
