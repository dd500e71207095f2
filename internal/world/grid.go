// Package world provides the sparse occupancy grid groups live on and the
// habitat field used to place the initial groups.
package world

import (
	"fmt"
	"sort"
)

// Coord is a cell position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OccupantID identifies whatever occupies a cell (a group handle).
type OccupantID = uint64

// Grid is a sparse width×height grid where each cell holds at most one
// occupant. Queries may wrap toroidally or clip at the edges.
type Grid struct {
	Width  int
	Height int

	cells map[Coord]OccupantID
	where map[OccupantID]Coord
}

// NewGrid creates an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make(map[Coord]OccupantID),
		where:  make(map[OccupantID]Coord),
	}
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Wrap maps c onto the grid toroidally.
func (g *Grid) Wrap(c Coord) Coord {
	return Coord{X: mod(c.X, g.Width), Y: mod(c.Y, g.Height)}
}

// OccupantAt returns the occupant of c, if any.
func (g *Grid) OccupantAt(c Coord) (OccupantID, bool) {
	id, ok := g.cells[c]
	return id, ok
}

// Occupied reports whether c holds an occupant.
func (g *Grid) Occupied(c Coord) bool {
	_, ok := g.cells[c]
	return ok
}

// Location returns where id currently sits.
func (g *Grid) Location(id OccupantID) (Coord, bool) {
	c, ok := g.where[id]
	return c, ok
}

// SetOccupant places id at c, moving it if it is already on the grid.
// It refuses a cell held by a different occupant.
func (g *Grid) SetOccupant(id OccupantID, c Coord) error {
	if !g.InBounds(c) {
		return fmt.Errorf("cell %d,%d outside %dx%d grid", c.X, c.Y, g.Width, g.Height)
	}
	if other, ok := g.cells[c]; ok && other != id {
		return fmt.Errorf("cell %d,%d already holds occupant %d", c.X, c.Y, other)
	}
	if old, ok := g.where[id]; ok {
		delete(g.cells, old)
	}
	g.cells[c] = id
	g.where[id] = c
	return nil
}

// RemoveOccupant takes id off the grid. Removing an absent id is a no-op.
func (g *Grid) RemoveOccupant(id OccupantID) bool {
	c, ok := g.where[id]
	if !ok {
		return false
	}
	delete(g.where, id)
	delete(g.cells, c)
	return true
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// AllOccupants returns every occupant, sorted by id.
func (g *Grid) AllOccupants() []OccupantID {
	ids := make([]OccupantID, 0, len(g.where))
	for id := range g.where {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MooreLocations returns the distinct cells within Chebyshev distance radius
// of c. Toroidal queries wrap; otherwise cells off the grid are dropped.
// Cells are returned in row-major scan order starting at the top-left offset.
func (g *Grid) MooreLocations(c Coord, radius int, toroidal, includeOrigin bool) []Coord {
	if radius < 0 {
		return nil
	}
	seen := make(map[Coord]bool, (2*radius+1)*(2*radius+1))
	out := make([]Coord, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			n := Coord{X: c.X + dx, Y: c.Y + dy}
			if toroidal {
				n = g.Wrap(n)
			} else if !g.InBounds(n) {
				continue
			}
			if n == c && !includeOrigin {
				continue
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// MooreNeighbors returns the occupants of MooreLocations(c, ...).
func (g *Grid) MooreNeighbors(c Coord, radius int, toroidal, includeOrigin bool) []OccupantID {
	var out []OccupantID
	for _, n := range g.MooreLocations(c, radius, toroidal, includeOrigin) {
		if id, ok := g.cells[n]; ok {
			out = append(out, id)
		}
	}
	return out
}

// CoveringRadius is the smallest Moore radius whose neighbourhood spans the
// whole grid from any cell.
func (g *Grid) CoveringRadius(toroidal bool) int {
	w, h := g.Width, g.Height
	if toroidal {
		w, h = w/2, h/2
	} else {
		w, h = w-1, h-1
	}
	if w > h {
		return w
	}
	return h
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
