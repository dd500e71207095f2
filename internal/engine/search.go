package engine

import (
	"github.com/talgya/ugworld/internal/social"
	"github.com/talgya/ugworld/internal/world"
)

// randomUniqueLocation picks a uniformly random empty cell within radius of
// origin, excluding origin itself.
func (s *Simulation) randomUniqueLocation(origin world.Coord, radius int) (world.Coord, bool) {
	cells := s.Grid.MooreLocations(origin, radius, s.Params.Toroidal, false)
	empty := cells[:0]
	for _, c := range cells {
		if !s.Grid.Occupied(c) {
			empty = append(empty, c)
		}
	}
	if len(empty) == 0 {
		return world.Coord{}, false
	}
	return empty[s.Rand.Intn(len(empty))], true
}

// findGroupLocal picks a uniformly random group within radius of origin,
// excluding the group at origin.
func (s *Simulation) findGroupLocal(origin world.Coord, radius int) *social.Group {
	ids := s.Grid.MooreNeighbors(origin, radius, s.Params.Toroidal, false)
	if len(ids) == 0 {
		return nil
	}
	return s.Groups[ids[s.Rand.Intn(len(ids))]]
}

// findGroupNearest widens the search ring around origin one step at a time
// and returns a random group from the first ring holding any. It gives up
// once the radius covers the whole grid.
func (s *Simulation) findGroupNearest(origin world.Coord) *social.Group {
	limit := s.Grid.CoveringRadius(s.Params.Toroidal)
	for r := 1; r <= limit; r++ {
		if g := s.findGroupLocal(origin, r); g != nil {
			return g
		}
	}
	return nil
}
