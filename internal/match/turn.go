package match

import "github.com/tomz197/bocce/internal/object"

// NextTeam picks who throws after a regular ball settles. thrown is each
// team's count this round and closest each team's nearest distance to the
// target (+Inf with no balls). A team out of balls always yields to the
// other; a team that has not thrown yet goes next (Team B checked first);
// otherwise the team that is farther away throws, with equal distances going
// to tie.
func NextTeam(thrown [2]int, closest [2]float64, allotment int, tie object.Team) object.Team {
	a, b := object.TeamA, object.TeamB
	switch {
	case thrown[a] >= allotment:
		return b
	case thrown[b] >= allotment:
		return a
	case thrown[b] == 0:
		return b
	case thrown[a] == 0:
		return a
	case closest[a] < closest[b]:
		return b
	case closest[b] < closest[a]:
		return a
	}
	if !tie.Valid() {
		return b
	}
	return tie
}
