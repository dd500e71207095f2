// Agent lifecycle: ageing, reproduction, inheritance, mutation and death.
package engine

import (
	"log/slog"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/social"
)

type agentStep struct {
	s  *Simulation
	id agents.AgentID
}

func (a agentStep) Step(tick uint64) { a.s.stepAgent(a.id, tick) }

// stepAgent runs one tick of an agent's life.
func (s *Simulation) stepAgent(id agents.AgentID, tick uint64) {
	a := s.Agents[id]
	if a == nil || !a.Alive {
		return
	}

	if a.Age >= a.MaxAge {
		g := s.Groups[a.Group]
		s.die(a, tick)
		s.groupDisperse(g, tick)
		return
	}

	if s.Params.IntervalGatedReproduction {
		a.ReproductiveCount++
		if a.ReproductiveCount >= a.IbiTau && a.CanReproduce() {
			s.reproduce(a, tick)
			a.ReproductiveCount = 0
			s.groupFission(s.Groups[a.Group], tick)
		}
	} else if a.CanReproduce() {
		s.reproduce(a, tick)
		s.groupFission(s.Groups[a.Group], tick)
	}

	a.Age++
}

// reproduce attempts one birth for a. The parent pays the cost on every
// attempt, including attempts blocked by capacity or a missing mate.
func (s *Simulation) reproduce(a *agents.Agent, tick uint64) *agents.Agent {
	p := s.Params
	if s.Population() >= p.MaxPopulation {
		a.PayReproduction(p.CarryOverResources)
		s.Diag.CapacityBlocked.Inc()
		return nil
	}

	parent := s.Groups[a.Group]
	target := parent
	moved := false
	if s.Rand.Bernoulli(p.DispersalRate) {
		if g := s.findGroupLocal(a.Position, p.DispersalRadius); g != nil {
			target = g
			moved = true
		}
	}

	strategy, ok := s.inherit(a, parent)
	a.PayReproduction(p.CarryOverResources)
	if !ok {
		// Lone sexual agent: no mate, so try to join a neighbour instead.
		s.Diag.SingletonMatings.Inc()
		slog.Debug("sexual reproduction without mate", "agent", a.ID, "group", a.Group, "tick", tick)
		s.groupDisperse(parent, tick)
		return nil
	}
	strategy = s.mutate(strategy)

	s.Recorder.RecordDispersal(moved)
	child := s.Spawner.SpawnChild(strategy, target.ID, target.Position, tick)
	a.Offspring++
	target.Add(child.ID)
	s.addAgent(child)

	s.Diag.Births.Inc()
	if moved {
		s.Diag.BirthDispersals.Inc()
	}
	s.Diag.Population.Set(float64(s.Population()))
	s.notifyDisplay(target)
	return child
}

// inherit returns the child's strategy before mutation. Sexual inheritance
// takes one trait from a and the other from a random other member of g; it
// fails when a has no groupmate.
func (s *Simulation) inherit(a *agents.Agent, g *social.Group) (agents.Strategy, bool) {
	if !s.Params.SexualReproduction {
		return a.Strategy(), true
	}
	if g == nil || g.Size() < 2 {
		return agents.Strategy{}, false
	}

	self := -1
	for i, m := range g.Members {
		if m == a.ID {
			self = i
			break
		}
	}
	i := s.Rand.Intn(g.Size() - 1)
	if self >= 0 && i >= self {
		i++
	}
	mate := s.Agents[g.Members[i]]

	if s.Rand.Bernoulli(0.5) {
		return agents.Strategy{Offer: a.Offer, Accept: mate.Accept}, true
	}
	return agents.Strategy{Offer: mate.Offer, Accept: a.Accept}, true
}

// mutate independently redraws each trait from the offer ladder with
// probability MutationRate.
func (s *Simulation) mutate(st agents.Strategy) agents.Strategy {
	ladder := s.Params.OfferArray
	if s.Rand.Bernoulli(s.Params.MutationRate) {
		st.Accept = ladder[s.Rand.Intn(len(ladder))]
	}
	if s.Rand.Bernoulli(s.Params.MutationRate) {
		st.Offer = ladder[s.Rand.Intn(len(ladder))]
	}
	return st
}

// die records the death, cancels the agent's step and removes it from its
// group and the arena. It does not reap the group.
func (s *Simulation) die(a *agents.Agent, tick uint64) {
	if !a.Alive {
		return
	}
	s.Recorder.RecordDeath(a, tick)
	a.Alive = false

	if h := s.agentEvents[a.ID]; h != nil {
		h.Cancel()
		delete(s.agentEvents, a.ID)
	}
	g := s.Groups[a.Group]
	if g != nil {
		g.Remove(a.ID)
	}
	delete(s.Agents, a.ID)

	s.Diag.Deaths.Inc()
	s.Diag.Population.Set(float64(s.Population()))
	if g != nil && !g.Empty() {
		s.notifyDisplay(g)
	}
}
