package world

import (
	"errors"
	"math/rand"
	"testing"
)

func testHabitat() *Habitat {
	return GenerateHabitat(20, 20, HabitatConfig{Seed: 11, Octaves: 3, Frequency: 0.1, Persistence: 0.5})
}

func TestHabitatRange(t *testing.T) {
	h := testHabitat()
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			if v := h.At(Coord{x, y}); v < 0 || v > 1 {
				t.Fatalf("suitability at %d,%d = %v outside [0,1]", x, y, v)
			}
		}
	}
}

func TestPlaceWeightedDistinctAndAboveThreshold(t *testing.T) {
	h := testHabitat()
	g := NewGrid(20, 20)
	rng := rand.New(rand.NewSource(1))
	cells, err := h.PlaceWeighted(g, 30, 0.3, rng)
	if err != nil {
		t.Fatalf("PlaceWeighted: %v", err)
	}
	seen := map[Coord]bool{}
	for _, c := range cells {
		if seen[c] {
			t.Fatalf("cell %v chosen twice", c)
		}
		seen[c] = true
		if h.At(c) < 0.3 {
			t.Fatalf("cell %v below threshold: %v", c, h.At(c))
		}
	}
}

func TestPlaceWeightedNoRoom(t *testing.T) {
	h := testHabitat()
	g := NewGrid(20, 20)
	if _, err := h.PlaceWeighted(g, 10, 1.1, rand.New(rand.NewSource(1))); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("err = %v, want ErrNoRoom", err)
	}
}

func TestPlaceUniformSkipsOccupied(t *testing.T) {
	g := NewGrid(2, 2)
	_ = g.SetOccupant(1, Coord{0, 0})
	cells, err := PlaceUniform(g, 3, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("PlaceUniform: %v", err)
	}
	for _, c := range cells {
		if c == (Coord{0, 0}) {
			t.Fatal("occupied cell chosen")
		}
	}
	if _, err := PlaceUniform(g, 4, rand.New(rand.NewSource(4))); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("err = %v, want ErrNoRoom", err)
	}
}
