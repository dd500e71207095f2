// Group lifecycle: ultimatum rounds, dispersal of undersized groups and
// reaping of empty ones.
package engine

import (
	"log/slog"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/social"
)

type groupStep struct {
	s  *Simulation
	id social.GroupID
}

func (g groupStep) Step(tick uint64) { g.s.stepGroup(g.id, tick) }

// stepGroup reaps an empty group, merges an undersized one into its nearest
// neighbour and otherwise plays one ultimatum round.
func (s *Simulation) stepGroup(id social.GroupID, tick uint64) {
	g := s.Groups[id]
	if g == nil || g.Dead {
		return
	}
	if s.dieGroup(g) {
		return
	}
	if g.Size() < s.Params.MinGroupSize && s.groupDisperse(g, tick) {
		return
	}
	s.ug(g)
}

// ug plays one ultimatum round among g's members. Members are shuffled and
// split in half; a coin decides which half proposes. Each proposer is paired
// with the responder at the same position. If proposers outnumber
// responders, the first unpaired proposer plays a random responder and only
// the proposer is credited. If responders outnumber proposers, the last
// responder plays a random proposer and only the responder is credited.
func (s *Simulation) ug(g *social.Group) {
	n := g.Size()
	if n < 2 {
		if n == 1 {
			s.Diag.SingletonRounds.Inc()
		}
		return
	}

	s.players = append(s.players[:0], g.Members...)
	players := s.players
	s.Rand.Shuffle(n, func(i, j int) { players[i], players[j] = players[j], players[i] })

	g.ClearScratch()
	half := n / 2
	if s.Rand.Bernoulli(0.5) {
		g.Proposers = append(g.Proposers, players[:half]...)
		g.Responders = append(g.Responders, players[half:]...)
	} else {
		g.Responders = append(g.Responders, players[:half]...)
		g.Proposers = append(g.Proposers, players[half:]...)
	}

	for i, pid := range g.Proposers {
		p := s.Agents[pid]
		if i < len(g.Responders) {
			s.transact(p, s.Agents[g.Responders[i]])
			continue
		}
		r := s.Agents[g.Responders[s.Rand.Intn(len(g.Responders))]]
		endowment := s.Endowment.Next()
		if s.offerAccepted(p, r) {
			p.Resources += endowment - p.Offer*endowment
		}
		break
	}

	if len(g.Proposers) < len(g.Responders) {
		p := s.Agents[g.Proposers[s.Rand.Intn(len(g.Proposers))]]
		r := s.Agents[g.Responders[len(g.Responders)-1]]
		endowment := s.Endowment.Next()
		if s.offerAccepted(p, r) {
			r.Resources += p.Offer * endowment
		}
	}

	g.ClearScratch()
}

// transact plays one full pairing and credits both sides on acceptance.
func (s *Simulation) transact(p, r *agents.Agent) {
	endowment := s.Endowment.Next()
	if !s.offerAccepted(p, r) {
		return
	}
	share := p.Offer * endowment
	r.Resources += share
	p.Resources += endowment - share
}

func (s *Simulation) offerAccepted(p, r *agents.Agent) bool {
	if p.Offer >= r.Accept {
		s.Diag.Offers.WithLabelValues("accepted").Inc()
		return true
	}
	s.Diag.Offers.WithLabelValues("rejected").Inc()
	return false
}

// groupDisperse merges an undersized group into the nearest other group and
// reaps it. It reports whether g was reaped. An empty group is always reaped.
func (s *Simulation) groupDisperse(g *social.Group, tick uint64) bool {
	if g == nil || g.Dead {
		return false
	}
	if g.Empty() {
		return s.dieGroup(g)
	}
	if g.Size() >= s.Params.MinGroupSize {
		return false
	}

	target := s.findGroupNearest(g.Position)
	if target == nil {
		s.Diag.DispersalFailures.Inc()
		slog.Debug("no group to disperse into", "group", g.ID, "size", g.Size(), "tick", tick)
		return false
	}

	for _, id := range g.TakeMembers() {
		s.Agents[id].MoveTo(target.ID, target.Position)
		target.Add(id)
	}
	s.Diag.GroupDispersals.Inc()
	s.notifyDisplay(target)
	return s.dieGroup(g)
}

// dieGroup reaps g if it is empty: the grid cell is freed and its schedule
// entry cancelled. It reports whether g is dead. Repeat calls are no-ops.
func (s *Simulation) dieGroup(g *social.Group) bool {
	if g.Dead {
		return true
	}
	if !g.Empty() {
		return false
	}
	g.Dead = true
	s.Grid.RemoveOccupant(g.ID)
	if h := s.groupEvents[g.ID]; h != nil {
		h.Cancel()
		delete(s.groupEvents, g.ID)
	}
	delete(s.Groups, g.ID)

	s.Diag.GroupDeaths.Inc()
	s.Diag.Groups.Set(float64(len(s.Groups)))
	return true
}
