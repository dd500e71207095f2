// Package agents provides the agent data model and the spawner that
// creates founders and offspring.
package agents

import (
	"github.com/talgya/ugworld/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// GroupID is the handle of the group an agent belongs to.
type GroupID = uint64

// Strategy is the heritable ultimatum-game strategy of an agent.
type Strategy struct {
	Offer  float64 `json:"offer"`  // share of the endowment proposed, 0.0–1.0
	Accept float64 `json:"accept"` // smallest offer fraction accepted, 0.0–1.0
}

// Agent is an individual playing the ultimatum game inside a group.
type Agent struct {
	ID AgentID `json:"id"`

	// Demographics
	Age    int `json:"age"`     // ticks
	MaxAge int `json:"max_age"` // dies on reaching this age

	// Economic
	Resources float64 `json:"resources"`
	Io        float64 `json:"io"` // resources needed to reproduce

	// Strategy
	Offer  float64 `json:"offer"`
	Accept float64 `json:"accept"`

	// Reproduction
	ReproductiveCount int `json:"reproductive_count"` // ticks since last attempt
	IbiTau            int `json:"ibi_tau"`            // minimum inter-birth interval
	Offspring         int `json:"offspring"`

	// Location mirrors the owning group's cell.
	Position world.Coord `json:"position"`
	Group    GroupID     `json:"group"`

	// Metadata
	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// Strategy returns the agent's heritable traits.
func (a *Agent) Strategy() Strategy {
	return Strategy{Offer: a.Offer, Accept: a.Accept}
}

// CanReproduce reports whether the agent holds enough resources to pay the
// reproduction cost.
func (a *Agent) CanReproduce() bool {
	return a.Resources >= a.Io
}

// PayReproduction charges the reproduction cost. With carry-over the surplus
// above Io is kept; otherwise resources reset to zero.
func (a *Agent) PayReproduction(carryOver bool) {
	if carryOver {
		a.Resources -= a.Io
	} else {
		a.Resources = 0
	}
}

// MoveTo re-homes the agent into group id at c.
func (a *Agent) MoveTo(id GroupID, c world.Coord) {
	a.Group = id
	a.Position = c
}
