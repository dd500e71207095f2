// Simulation ties together the grid, the schedule and the agent/group tables.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/config"
	"github.com/talgya/ugworld/internal/entropy"
	"github.com/talgya/ugworld/internal/social"
	"github.com/talgya/ugworld/internal/world"
)

// Step orders: agents and groups run before observers within a tick.
const (
	OrderEntities  = 0
	OrderObservers = 1
)

// Endowment supplies the per-pairing resource pool of the ultimatum game.
type Endowment interface {
	Next() float64
}

// Recorder receives per-agent analytics events.
type Recorder interface {
	RecordDeath(a *agents.Agent, tick uint64)
	RecordDispersal(moved bool)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) RecordDeath(*agents.Agent, uint64) {}
func (NopRecorder) RecordDispersal(bool)              {}

// Simulation holds the complete population state and wires systems together.
// All mutation happens synchronously inside schedule steps.
type Simulation struct {
	Params    config.Params
	Grid      *world.Grid
	Schedule  *Schedule
	Rand      entropy.Source
	Endowment Endowment
	Spawner   *agents.Spawner
	Recorder  Recorder
	Display   Display
	Diag      *Diagnostics

	// Agent arena and group table, keyed by handle.
	Agents map[agents.AgentID]*agents.Agent
	Groups map[social.GroupID]*social.Group

	agentEvents map[agents.AgentID]*Handle
	groupEvents map[social.GroupID]*Handle
	nextGroupID social.GroupID
	players     []agents.AgentID // ug scratch
}

// NewSimulation creates an empty simulation from validated parameters.
// Recorder, Display and Diag default to no-op implementations.
func NewSimulation(p config.Params, rng entropy.Source) *Simulation {
	return &Simulation{
		Params:   p,
		Grid:     world.NewGrid(p.GridWidth, p.GridHeight),
		Schedule: NewSchedule(rng),
		Rand:     rng,
		Endowment: entropy.NewTruncNormal(rng,
			p.Endowment.Mean, p.Endowment.SD, p.Endowment.Lower, p.Endowment.Upper),
		Spawner: agents.NewSpawner(agents.SpawnConfig{
			AverageAge: p.AverageAge,
			SDAge:      p.SDAge,
			Io:         p.Io,
			IbiTau:     p.IbiTau,
		}, rng),
		Recorder:    NopRecorder{},
		Display:     NopDisplay{},
		Diag:        NewDiagnostics(nil),
		Agents:      make(map[agents.AgentID]*agents.Agent),
		Groups:      make(map[social.GroupID]*social.Group),
		agentEvents: make(map[agents.AgentID]*Handle),
		groupEvents: make(map[social.GroupID]*Handle),
		nextGroupID: 1,
	}
}

// Populate places the startup groups and their founders.
func (s *Simulation) Populate() error {
	p := s.Params
	var cells []world.Coord
	var err error
	if p.Habitat.Enabled {
		h := world.GenerateHabitat(p.GridWidth, p.GridHeight, world.HabitatConfig{
			Seed:        p.Seed,
			Octaves:     p.Habitat.Octaves,
			Frequency:   p.Habitat.Frequency,
			Persistence: p.Habitat.Persistence,
		})
		cells, err = h.PlaceWeighted(s.Grid, p.InitialGroups, p.Habitat.Threshold, s.Rand)
	} else {
		cells, err = world.PlaceUniform(s.Grid, p.InitialGroups, s.Rand)
	}
	if err != nil {
		return fmt.Errorf("place %d groups: %w", p.InitialGroups, err)
	}

	strategy := func() agents.Strategy {
		if p.RandomInitialStrategies {
			return agents.Strategy{
				Offer:  p.OfferArray[s.Rand.Intn(len(p.OfferArray))],
				Accept: p.OfferArray[s.Rand.Intn(len(p.OfferArray))],
			}
		}
		return agents.Strategy{Offer: p.InitialOffer, Accept: p.InitialAccept}
	}

	start := s.Schedule.CurrentTick()
	for _, c := range cells {
		founders := s.Spawner.SpawnFounders(p.InitialGroupSize, strategy, 0, c)
		ids := make([]agents.AgentID, 0, len(founders))
		for _, a := range founders {
			s.addAgent(a)
			ids = append(ids, a.ID)
		}
		if _, err := s.addGroup(c, ids, start); err != nil {
			return err
		}
	}

	s.Diag.Population.Set(float64(s.Population()))
	s.Diag.Groups.Set(float64(len(s.Groups)))
	slog.Info("population seeded",
		"groups", len(s.Groups),
		"agents", s.Population(),
		"habitat", p.Habitat.Enabled,
	)
	return nil
}

// addAgent registers a new agent in the arena and schedules it.
func (s *Simulation) addAgent(a *agents.Agent) {
	s.Agents[a.ID] = a
	s.agentEvents[a.ID] = s.Schedule.ScheduleRepeating(agentStep{s, a.ID}, OrderEntities)
}

// addGroup creates a group at c owning members and schedules it from start.
func (s *Simulation) addGroup(c world.Coord, members []agents.AgentID, start uint64) (*social.Group, error) {
	id := s.nextGroupID
	if err := s.Grid.SetOccupant(id, c); err != nil {
		return nil, fmt.Errorf("add group: %w", err)
	}
	s.nextGroupID++

	g := social.NewGroup(id, c, members, start)
	for _, m := range members {
		if a := s.Agents[m]; a != nil {
			a.MoveTo(id, c)
		}
	}
	s.Groups[id] = g
	s.groupEvents[id] = s.Schedule.ScheduleRepeatingAt(groupStep{s, id}, start, 1, OrderEntities)
	s.notifyDisplay(g)
	return g, nil
}

// Population returns the number of living agents.
func (s *Simulation) Population() int {
	return len(s.Agents)
}

// Extinct reports whether no agents remain.
func (s *Simulation) Extinct() bool {
	return len(s.Agents) == 0
}

// Tick returns the schedule's current tick.
func (s *Simulation) Tick() uint64 {
	return s.Schedule.CurrentTick()
}

// Agent returns the agent with id, or nil.
func (s *Simulation) Agent(id agents.AgentID) *agents.Agent {
	return s.Agents[id]
}

// Group returns the live group with id, or nil.
func (s *Simulation) Group(id social.GroupID) *social.Group {
	return s.Groups[id]
}

// LiveGroups returns every group on the grid, ordered by id.
func (s *Simulation) LiveGroups() []*social.Group {
	ids := s.Grid.AllOccupants()
	out := make([]*social.Group, 0, len(ids))
	for _, id := range ids {
		if g := s.Groups[id]; g != nil {
			out = append(out, g)
		}
	}
	return out
}

// Neighbors returns the groups in the Moore neighbourhood of g, excluding g.
func (s *Simulation) Neighbors(g *social.Group, radius int) []*social.Group {
	ids := s.Grid.MooreNeighbors(g.Position, radius, s.Params.Toroidal, false)
	out := make([]*social.Group, 0, len(ids))
	for _, id := range ids {
		if n := s.Groups[id]; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// MeanOffer returns the mean offer of g's members, 0 for an empty group.
func (s *Simulation) MeanOffer(g *social.Group) float64 {
	if g.Empty() {
		return 0
	}
	sum := 0.0
	for _, id := range g.Members {
		sum += s.Agents[id].Offer
	}
	return sum / float64(g.Size())
}

// GroupSummary is a read-only view of one group for outer surfaces.
type GroupSummary struct {
	ID         social.GroupID `json:"id"`
	X          int            `json:"x"`
	Y          int            `json:"y"`
	Size       int            `json:"size"`
	MeanOffer  float64        `json:"mean_offer"`
	MeanAccept float64        `json:"mean_accept"`
	Color      string         `json:"color"`
}

// Summaries returns a snapshot of every live group, ordered by id.
func (s *Simulation) Summaries() []GroupSummary {
	groups := s.LiveGroups()
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		accept := 0.0
		for _, id := range g.Members {
			accept += s.Agents[id].Accept
		}
		if g.Size() > 0 {
			accept /= float64(g.Size())
		}
		offer := s.MeanOffer(g)
		out = append(out, GroupSummary{
			ID:         g.ID,
			X:          g.Position.X,
			Y:          g.Position.Y,
			Size:       g.Size(),
			MeanOffer:  offer,
			MeanAccept: accept,
			Color:      social.Palette[social.ColorIndex(offer, s.Params.OfferArray)],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
