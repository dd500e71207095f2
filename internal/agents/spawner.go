// Agent spawning: founders at startup and offspring at birth.
package agents

import (
	"github.com/talgya/ugworld/internal/world"
)

// Rand is the subset of the random source the spawner needs.
type Rand interface {
	Intn(n int) int
	NormFloat64() float64
}

// SpawnConfig controls lifespan and reproduction constants of new agents.
type SpawnConfig struct {
	AverageAge float64 // mean lifespan in ticks
	SDAge      float64 // lifespan SD as a fraction of AverageAge
	Io         float64
	IbiTau     int
}

// Spawner creates agents for the simulation.
type Spawner struct {
	cfg    SpawnConfig
	rng    Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner drawing from rng.
func NewSpawner(cfg SpawnConfig, rng Rand) *Spawner {
	return &Spawner{
		cfg:    cfg,
		rng:    rng,
		nextID: 1,
	}
}

// SpawnFounders creates count startup agents for a group. Founders get an
// age uniform in [0, maxAge) so the initial population is not a cohort.
func (s *Spawner) SpawnFounders(count int, strategy func() Strategy, group GroupID, position world.Coord) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		a := s.spawnOne(strategy(), group, position, 0)
		a.Age = s.rng.Intn(a.MaxAge)
		out = append(out, a)
	}
	return out
}

// SpawnChild creates a newborn with the given strategy, age 0 and no resources.
func (s *Spawner) SpawnChild(strategy Strategy, group GroupID, position world.Coord, tick uint64) *Agent {
	return s.spawnOne(strategy, group, position, tick)
}

func (s *Spawner) spawnOne(strategy Strategy, group GroupID, position world.Coord, tick uint64) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:        id,
		Age:       0,
		MaxAge:    s.maxAge(),
		Resources: 0,
		Io:        s.cfg.Io,
		Offer:     strategy.Offer,
		Accept:    strategy.Accept,
		IbiTau:    s.cfg.IbiTau,
		Position:  position,
		Group:     group,
		BornTick:  tick,
		Alive:     true,
	}
}

// maxAge draws a lifespan: AverageAge with an SD of SDAge×AverageAge,
// floored at one tick.
func (s *Spawner) maxAge() int {
	age := int(s.cfg.AverageAge + s.rng.NormFloat64()*s.cfg.SDAge*s.cfg.AverageAge)
	if age < 1 {
		age = 1
	}
	return age
}
