package engine

import (
	"log/slog"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/social"
	"github.com/talgya/ugworld/internal/world"
)

const (
	// Attempts at finding an empty cell anywhere on the grid.
	maxPlacementAttempts = 1000
	// Attempts at a random split leaving both halves above MinGroupSize.
	maxPartitionAttempts = 1000
)

// groupFission splits an oversized group in two. The new group goes to a
// random empty cell on the grid with probability GlobalFissionProbability,
// otherwise to an empty cell within GroupRadius. Members are assigned by
// coin flip until both halves exceed MinGroupSize.
func (s *Simulation) groupFission(g *social.Group, tick uint64) {
	if g == nil || g.Dead || g.Size() <= s.Params.MaxGroupSize {
		return
	}

	var (
		target world.Coord
		found  bool
	)
	if s.Rand.Bernoulli(s.Params.GlobalFissionProbability) {
		target, found = s.randomEmptyCell()
	} else {
		target, found = s.randomUniqueLocation(g.Position, s.Params.GroupRadius)
	}
	if !found {
		s.Diag.FissionAborts.WithLabelValues("no_space").Inc()
		slog.Debug("fission aborted: no empty cell", "group", g.ID, "size", g.Size(), "tick", tick)
		return
	}

	stay, leave, ok := s.partition(g.Members)
	if !ok {
		s.Diag.FissionAborts.WithLabelValues("partition").Inc()
		slog.Debug("fission aborted: no valid split", "group", g.ID, "size", g.Size(), "tick", tick)
		return
	}

	g.Members = stay
	child, err := s.addGroup(target, leave, tick+1)
	if err != nil {
		g.Members = append(g.Members, leave...)
		slog.Error("fission failed", "group", g.ID, "error", err)
		return
	}

	s.Diag.Fissions.Inc()
	s.Diag.Groups.Set(float64(len(s.Groups)))
	s.notifyDisplay(g)
	slog.Debug("group fissioned", "group", g.ID, "child", child.ID,
		"stay", len(stay), "leave", len(leave), "tick", tick)
}

// randomEmptyCell samples uniformly random cells until it finds an empty one.
func (s *Simulation) randomEmptyCell() (world.Coord, bool) {
	for i := 0; i < maxPlacementAttempts; i++ {
		c := world.Coord{X: s.Rand.Intn(s.Grid.Width), Y: s.Rand.Intn(s.Grid.Height)}
		if !s.Grid.Occupied(c) {
			return c, true
		}
	}
	return world.Coord{}, false
}

// partition splits members by fair coin until both parts are larger than
// MinGroupSize.
func (s *Simulation) partition(members []agents.AgentID) (stay, leave []agents.AgentID, ok bool) {
	min := s.Params.MinGroupSize
	for attempt := 0; attempt < maxPartitionAttempts; attempt++ {
		stay = make([]agents.AgentID, 0, len(members))
		leave = make([]agents.AgentID, 0, len(members))
		for _, m := range members {
			if s.Rand.Bernoulli(0.5) {
				leave = append(leave, m)
			} else {
				stay = append(stay, m)
			}
		}
		if len(stay) > min && len(leave) > min {
			return stay, leave, true
		}
	}
	return nil, nil, false
}
