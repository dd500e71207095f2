// Package social provides the group: a spatially located container of agents
// that plays the ultimatum game together.
package social

import (
	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/world"
)

// GroupID is a unique identifier for a group. It doubles as the group's
// occupant handle on the grid.
type GroupID = uint64

// Group is a set of agents sharing one grid cell.
type Group struct {
	ID       GroupID     `json:"id"`
	Position world.Coord `json:"position"`

	// Members holds agent handles in insertion order.
	Members []agents.AgentID `json:"members"`

	// Scratch sets reused by every ultimatum round.
	Proposers  []agents.AgentID `json:"-"`
	Responders []agents.AgentID `json:"-"`

	BornTick uint64 `json:"born_tick"`
	Dead     bool   `json:"dead"` // removed from grid and schedule
}

// NewGroup creates a group at position with the given members.
func NewGroup(id GroupID, position world.Coord, members []agents.AgentID, tick uint64) *Group {
	return &Group{
		ID:       id,
		Position: position,
		Members:  members,
		BornTick: tick,
	}
}

// Size returns the number of members.
func (g *Group) Size() int {
	return len(g.Members)
}

// Empty reports whether the group has no members.
func (g *Group) Empty() bool {
	return len(g.Members) == 0
}

// Add appends a member.
func (g *Group) Add(id agents.AgentID) {
	g.Members = append(g.Members, id)
}

// Remove deletes a member, preserving the order of the rest.
func (g *Group) Remove(id agents.AgentID) bool {
	for i, m := range g.Members {
		if m == id {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is a member.
func (g *Group) Contains(id agents.AgentID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// TakeMembers empties the group and returns its former members.
func (g *Group) TakeMembers() []agents.AgentID {
	m := g.Members
	g.Members = nil
	return m
}

// ClearScratch empties the per-round proposer/responder sets.
func (g *Group) ClearScratch() {
	g.Proposers = g.Proposers[:0]
	g.Responders = g.Responders[:0]
}
