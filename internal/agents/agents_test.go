package agents

import (
	"math/rand"
	"testing"

	"github.com/talgya/ugworld/internal/world"
)

func TestSpawnFoundersAges(t *testing.T) {
	s := NewSpawner(SpawnConfig{AverageAge: 50, SDAge: 0.1, Io: 5, IbiTau: 3}, rand.New(rand.NewSource(1)))
	fixed := func() Strategy { return Strategy{Offer: 0.4, Accept: 0.3} }
	founders := s.SpawnFounders(200, fixed, 9, world.Coord{X: 1, Y: 2})
	if len(founders) != 200 {
		t.Fatalf("got %d founders", len(founders))
	}
	seen := map[AgentID]bool{}
	for _, a := range founders {
		if seen[a.ID] {
			t.Fatalf("duplicate id %d", a.ID)
		}
		seen[a.ID] = true
		if a.MaxAge < 1 {
			t.Fatalf("maxAge %d < 1", a.MaxAge)
		}
		if a.Age < 0 || a.Age >= a.MaxAge {
			t.Fatalf("startup age %d outside [0,%d)", a.Age, a.MaxAge)
		}
		if a.Group != 9 || a.Position != (world.Coord{X: 1, Y: 2}) {
			t.Fatalf("founder not placed in its group: %+v", a)
		}
		if a.Resources != 0 || !a.Alive || a.Io != 5 || a.IbiTau != 3 {
			t.Fatalf("unexpected founder state: %+v", a)
		}
	}
}

func TestSpawnChild(t *testing.T) {
	s := NewSpawner(SpawnConfig{AverageAge: 10, SDAge: 0}, rand.New(rand.NewSource(1)))
	s.nextID = 40
	c := s.SpawnChild(Strategy{Offer: 0.2, Accept: 0.1}, 3, world.Coord{X: 4, Y: 4}, 77)
	if c.ID != 40 || s.nextID != 41 {
		t.Fatalf("id = %d next = %d", c.ID, s.nextID)
	}
	if c.Age != 0 || c.Resources != 0 || c.BornTick != 77 || c.MaxAge != 10 {
		t.Fatalf("unexpected child: %+v", c)
	}
	if c.Strategy() != (Strategy{Offer: 0.2, Accept: 0.1}) {
		t.Fatalf("strategy = %+v", c.Strategy())
	}
}

func TestPayReproduction(t *testing.T) {
	a := &Agent{Resources: 13, Io: 10}
	if !a.CanReproduce() {
		t.Fatal("CanReproduce = false with 13 >= 10")
	}
	a.PayReproduction(true)
	if a.Resources != 3 {
		t.Fatalf("carry-over resources = %v, want 3", a.Resources)
	}
	a.Resources = 13
	a.PayReproduction(false)
	if a.Resources != 0 {
		t.Fatalf("reset resources = %v, want 0", a.Resources)
	}
}
