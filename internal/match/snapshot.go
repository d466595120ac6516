package match

import (
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/throw"
)

// BallView is a ball as seen by a renderer.
type BallView struct {
	ID       int         `json:"id"`
	Team     object.Team `json:"team"`
	Target   bool        `json:"target"`
	Thrown   bool        `json:"thrown"`
	Settled  bool        `json:"settled"`
	Position object.Vec3 `json:"position"`
}

// Snapshot is a value copy of the match state.
type Snapshot struct {
	ID           string               `json:"id"`
	State        object.GameState     `json:"state"`
	Current      object.Team          `json:"current"`
	Controllers  [2]object.Controller `json:"-"`
	Difficulty   object.Difficulty    `json:"difficulty"`
	Round        int                  `json:"round"`
	Scores       [2]int               `json:"scores"`
	WinScore     int                  `json:"win_score"`
	BallsPerTeam int                  `json:"balls_per_team"`
	Thrown       [2]int               `json:"thrown"`
	InFlight     int                  `json:"in_flight"` // ball id, -1 when none
	Last         *object.RoundResult  `json:"last,omitempty"`
	Winner       object.Team          `json:"winner"`

	Step       object.ThrowStep `json:"step"`
	Angle      float64          `json:"angle"`
	Lateral    float64          `json:"lateral"`
	Power      float64          `json:"power"`
	Normalized float64          `json:"normalized"`
	SweetLo    float64          `json:"sweet_lo"`
	SweetHi    float64          `json:"sweet_hi"`
	LastThrow  *throw.Release   `json:"-"`

	Target object.Vec3 `json:"target"`
	Balls  []BallView  `json:"balls"`
}

// Snapshot copies the current match state. Ball positions are read from
// the physics space; balls without a body are left out.
func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		ID:           m.id,
		State:        m.state,
		Current:      m.current,
		Controllers:  m.cfg.Controllers,
		Difficulty:   m.difficulty,
		Round:        m.round,
		Scores:       m.scores,
		WinScore:     m.cfg.WinScore,
		BallsPerTeam: m.cfg.BallsPerTeam,
		Thrown:       m.thrownCounts(),
		InFlight:     -1,
		Winner:       m.winner,
		Step:         m.launcher.Step(),
		Angle:        m.launcher.Angle(),
		Lateral:      m.launcher.Lateral(),
	}
	s.Power, s.Normalized = m.launcher.Power()
	s.SweetLo, s.SweetHi = m.launcher.SweetSpot()
	if m.inFlight != nil {
		s.InFlight = m.inFlight.ID
	}
	if m.last != nil {
		r := *m.last
		s.Last = &r
	}
	if m.lastThrow != nil {
		r := *m.lastThrow
		s.LastThrow = &r
	}
	for _, b := range m.Balls() {
		body, ok := m.space.Body(b.ID)
		if !ok {
			continue
		}
		pos := body.Position()
		if b.Target {
			s.Target = pos
		}
		s.Balls = append(s.Balls, BallView{
			ID:       b.ID,
			Team:     b.Team,
			Target:   b.Target,
			Thrown:   b.Thrown,
			Settled:  b.Settled,
			Position: pos,
		})
	}
	return s
}
