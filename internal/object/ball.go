package object

import "fmt"

// Team identifies one of the two sides in a match.
type Team int

const (
	TeamA Team = iota
	TeamB
	// TeamNone marks "no team", e.g. the target ball's owner or a match
	// that has no winner yet. It is never a valid team to throw.
	TeamNone Team = -1
)

// Teams lists the playing teams in index order.
var Teams = [2]Team{TeamA, TeamB}

// Other returns the opposing team.
func (t Team) Other() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return TeamNone
}

// Valid reports whether t is TeamA or TeamB.
func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "Team A"
	case TeamB:
		return "Team B"
	}
	return "none"
}

// MarshalText renders the team as a short stable token for JSON frames.
func (t Team) MarshalText() ([]byte, error) {
	switch t {
	case TeamA:
		return []byte("a"), nil
	case TeamB:
		return []byte("b"), nil
	}
	return []byte("none"), nil
}

// ParseTeam accepts the tokens produced by MarshalText.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "a":
		return TeamA, nil
	case "b":
		return TeamB, nil
	case "none":
		return TeamNone, nil
	}
	return TeamNone, fmt.Errorf("unknown team %q", s)
}

func (t *Team) UnmarshalText(text []byte) error {
	v, err := ParseTeam(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Ball is the core's view of a bocce ball. Position and velocity belong to
// the physics collaborator; the core only tracks identity and the round
// flags below.
type Ball struct {
	ID     int
	Team   Team // TeamNone for the target ball
	Index  int  // position in the team's rack, 0-based
	Target bool

	Thrown  bool // launched this round
	Settled bool // motion judged stopped after the last launch
}

// InFlight reports whether the ball has been launched and not yet settled.
func (b *Ball) InFlight() bool {
	return b.Thrown && !b.Settled
}

// Reset clears the per-round flags.
func (b *Ball) Reset() {
	b.Thrown = false
	b.Settled = false
}

func (b *Ball) String() string {
	if b == nil {
		return "<nil ball>"
	}
	if b.Target {
		return "target"
	}
	return fmt.Sprintf("%s#%d", b.Team, b.Index+1)
}

// Rack creates the match's ball set: one target ball plus perTeam balls for
// each team. IDs are dense starting at 0 with the target first.
func Rack(perTeam int) (target *Ball, teams [2][]*Ball) {
	id := 0
	target = &Ball{ID: id, Team: TeamNone, Target: true}
	id++
	for _, team := range Teams {
		teams[team] = make([]*Ball, perTeam)
		for i := 0; i < perTeam; i++ {
			teams[team][i] = &Ball{ID: id, Team: team, Index: i}
			id++
		}
	}
	return target, teams
}
