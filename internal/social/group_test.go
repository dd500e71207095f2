package social

import (
	"testing"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/world"
)

func TestMembership(t *testing.T) {
	g := NewGroup(1, world.Coord{X: 2, Y: 3}, []agents.AgentID{1, 2, 3}, 0)
	g.Add(4)
	if !g.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	if g.Remove(2) {
		t.Fatal("second Remove(2) = true")
	}
	want := []agents.AgentID{1, 3, 4}
	if g.Size() != len(want) {
		t.Fatalf("size = %d", g.Size())
	}
	for i, id := range want {
		if g.Members[i] != id {
			t.Fatalf("members = %v, want %v", g.Members, want)
		}
	}
	if !g.Contains(4) || g.Contains(2) {
		t.Fatal("Contains mismatch")
	}
	taken := g.TakeMembers()
	if len(taken) != 3 || !g.Empty() {
		t.Fatalf("TakeMembers = %v, empty = %v", taken, g.Empty())
	}
}

func TestClearScratch(t *testing.T) {
	g := NewGroup(1, world.Coord{}, nil, 0)
	g.Proposers = append(g.Proposers, 1, 2)
	g.Responders = append(g.Responders, 3)
	g.ClearScratch()
	if len(g.Proposers) != 0 || len(g.Responders) != 0 {
		t.Fatal("scratch not cleared")
	}
}

func TestColorIndex(t *testing.T) {
	ladder := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	cases := []struct {
		offer float64
		want  int
	}{
		{0, 0},
		{0.05, 1},
		{0.5, 5},
		{0.6, 6},
		{0.65, 7},
		{1, 7},
	}
	for _, tc := range cases {
		if got := ColorIndex(tc.offer, ladder); got != tc.want {
			t.Errorf("ColorIndex(%v) = %d, want %d", tc.offer, got, tc.want)
		}
	}
}
