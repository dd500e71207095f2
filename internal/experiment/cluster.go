package experiment

import (
	"github.com/talgya/ugworld/internal/social"
)

// ClusterLadder bins connected components by group count. Larger
// components saturate into the last bin.
var ClusterLadder = []float64{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13,
	14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
}

// Cluster is one connected component of Moore-adjacent groups.
type Cluster struct {
	Groups    int
	Agents    int
	MeanOffer float64 // weighted by group size
}

// ClusterSizes finds the connected components of occupied cells under
// radius-1 Moore adjacency and bins each one by group count. It does nothing
// before burn-in.
func (e *Experimenter) ClusterSizes(tick uint64) []Cluster {
	if tick < e.burnIn {
		return nil
	}
	clusters := e.components()
	for _, c := range clusters {
		size := float64(c.Groups)
		e.clusters.Count(size)
		e.clusterOffers.Add(size, c.MeanOffer, true)
		e.clusterAgents.Add(size, float64(c.Agents), true)
	}
	return clusters
}

func (e *Experimenter) components() []Cluster {
	groups := e.pop.LiveGroups()
	claimed := make(map[social.GroupID]bool, len(groups))
	var out []Cluster
	var queue []*social.Group

	for _, g := range groups {
		if claimed[g.ID] {
			continue
		}
		claimed[g.ID] = true
		queue = append(queue[:0], g)
		for head := 0; head < len(queue); head++ {
			for _, n := range e.pop.Neighbors(queue[head], 1) {
				if !claimed[n.ID] {
					claimed[n.ID] = true
					queue = append(queue, n)
				}
			}
		}

		c := Cluster{Groups: len(queue)}
		offer := 0.0
		for _, m := range queue {
			for _, id := range m.Members {
				if a := e.pop.Agent(id); a != nil {
					offer += a.Offer
					c.Agents++
				}
			}
		}
		if c.Agents > 0 {
			c.MeanOffer = offer / float64(c.Agents)
		}
		out = append(out, c)
	}
	return out
}
