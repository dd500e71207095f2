package engine

import "github.com/talgya/ugworld/internal/social"

// Display is notified when a group's membership changes, so a viewer can
// recolour it by mean offer.
type Display interface {
	GroupChanged(g *social.Group, meanOffer float64)
}

// NopDisplay ignores all notifications.
type NopDisplay struct{}

func (NopDisplay) GroupChanged(*social.Group, float64) {}

func (s *Simulation) notifyDisplay(g *social.Group) {
	if !s.Params.DynamicGroupColor || g == nil || g.Dead {
		return
	}
	s.Display.GroupChanged(g, s.MeanOffer(g))
}
