package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/ugworld/internal/agents"
)

// CheckInvariants verifies the structural consistency of the population:
// every agent lives in exactly one live group at that group's cell, every
// live group is non-empty and on the grid, and strategies stay in [0, 1].
func (s *Simulation) CheckInvariants() error {
	var errs []error

	owner := make(map[agents.AgentID]uint64, len(s.Agents))
	for id, g := range s.Groups {
		if g.Dead {
			errs = append(errs, fmt.Errorf("group %d: dead but still in table", id))
		}
		if g.Empty() {
			errs = append(errs, fmt.Errorf("group %d: empty", id))
		}
		if c, ok := s.Grid.Location(id); !ok || c != g.Position {
			errs = append(errs, fmt.Errorf("group %d: grid location %v, want %v", id, c, g.Position))
		}
		for _, m := range g.Members {
			if prev, dup := owner[m]; dup {
				errs = append(errs, fmt.Errorf("agent %d: member of groups %d and %d", m, prev, id))
			}
			owner[m] = id
		}
	}
	if s.Grid.Len() != len(s.Groups) {
		errs = append(errs, fmt.Errorf("grid holds %d groups, table %d", s.Grid.Len(), len(s.Groups)))
	}

	for id, a := range s.Agents {
		gid, ok := owner[id]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("agent %d: in no group", id))
		case gid != a.Group:
			errs = append(errs, fmt.Errorf("agent %d: points at group %d, member of %d", id, a.Group, gid))
		case a.Position != s.Groups[gid].Position:
			errs = append(errs, fmt.Errorf("agent %d: at %v, group at %v", id, a.Position, s.Groups[gid].Position))
		}
		if a.Offer < 0 || a.Offer > 1 || a.Accept < 0 || a.Accept > 1 {
			errs = append(errs, fmt.Errorf("agent %d: strategy %+v out of range", id, a.Strategy()))
		}
	}
	if len(owner) != len(s.Agents) {
		errs = append(errs, fmt.Errorf("%d group members, %d agents", len(owner), len(s.Agents)))
	}

	return errors.Join(errs...)
}
