// Package scoring decides who wins a round and by how many points. Every
// function here is pure: same positions in, same result out.
package scoring

import (
	"math"
	"sort"

	"github.com/tomz197/bocce/internal/object"
)

// ClosestDistance returns the smallest planar distance from any position to
// target, or +Inf when there are none.
func ClosestDistance(positions []object.Vec3, target object.Vec3) float64 {
	best := math.Inf(1)
	for _, p := range positions {
		if d := object.PlanarDistance(p, target); d < best {
			best = d
		}
	}
	return best
}

// Closest returns both teams' closest distances.
func Closest(target object.Vec3, teams [2][]object.Vec3) [2]float64 {
	return [2]float64{
		ClosestDistance(teams[object.TeamA], target),
		ClosestDistance(teams[object.TeamB], target),
	}
}

// Score evaluates a finished round. teams holds each team's thrown, settled
// ball positions. The team with the nearer closest ball scores; equal
// distances go to tie (TeamA if tie is not a valid team). Points are the
// scorer's balls strictly nearer than the other team's closest, never less
// than one.
func Score(target object.Vec3, teams [2][]object.Vec3, tie object.Team) object.RoundResult {
	if !tie.Valid() {
		tie = object.TeamA
	}
	closest := Closest(target, teams)

	scorer := tie
	switch {
	case closest[object.TeamA] < closest[object.TeamB]:
		scorer = object.TeamA
	case closest[object.TeamB] < closest[object.TeamA]:
		scorer = object.TeamB
	}

	limit := closest[scorer.Other()]
	points := 0
	for _, p := range teams[scorer] {
		if object.PlanarDistance(p, target) < limit {
			points++
		}
	}
	if points == 0 {
		points = 1
	}
	return object.RoundResult{Team: scorer, Points: points}
}

// Entry is one thrown ball's standing relative to the target.
type Entry struct {
	Team     object.Team `json:"team"`
	Index    int         `json:"index"`
	Distance float64     `json:"distance"`
}

// Ranked lists every ball nearest first. Equal distances keep team then
// index order.
func Ranked(target object.Vec3, teams [2][]object.Vec3) []Entry {
	var out []Entry
	for _, team := range object.Teams {
		for i, p := range teams[team] {
			out = append(out, Entry{Team: team, Index: i, Distance: object.PlanarDistance(p, target)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
