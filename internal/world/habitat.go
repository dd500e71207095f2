// Habitat suitability field for seeding the initial groups.
// Suitability is layered simplex noise so that starting groups cluster the
// way settlements do on real terrain, instead of being sprinkled uniformly.
package world

import (
	"errors"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ErrNoRoom is returned when fewer suitable empty cells exist than requested.
var ErrNoRoom = errors.New("not enough suitable cells")

// Picker is the subset of the random source placement needs.
type Picker interface {
	Intn(n int) int
	Float64() float64
}

// HabitatConfig holds habitat generation parameters.
type HabitatConfig struct {
	Seed        int64
	Octaves     int
	Frequency   float64
	Persistence float64
}

// Habitat is a per-cell suitability in [0,1).
type Habitat struct {
	Width  int
	Height int
	cells  []float64
}

// GenerateHabitat samples the noise field over a width×height grid.
func GenerateHabitat(width, height int, cfg HabitatConfig) *Habitat {
	noise := opensimplex.NewNormalized(cfg.Seed)
	h := &Habitat{Width: width, Height: height, cells: make([]float64, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			h.cells[y*width+x] = octaveNoise(noise, float64(x), float64(y), cfg.Octaves, cfg.Frequency, cfg.Persistence)
		}
	}
	return h
}

// At returns the suitability of c.
func (h *Habitat) At(c Coord) float64 {
	return h.cells[c.Y*h.Width+c.X]
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// PlaceWeighted picks n distinct empty cells with probability proportional to
// suitability, ignoring cells below threshold.
func (h *Habitat) PlaceWeighted(g *Grid, n int, threshold float64, rng Picker) ([]Coord, error) {
	type scored struct {
		coord Coord
		score float64
	}
	var candidates []scored
	total := 0.0
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			c := Coord{X: x, Y: y}
			s := h.At(c)
			if s < threshold || g.Occupied(c) {
				continue
			}
			candidates = append(candidates, scored{c, s})
			total += s
		}
	}
	if len(candidates) < n {
		return nil, ErrNoRoom
	}

	// Roulette selection without replacement.
	out := make([]Coord, 0, n)
	for len(out) < n {
		pick := rng.Float64() * total
		acc := 0.0
		i := 0
		for ; i < len(candidates)-1; i++ {
			acc += candidates[i].score
			if pick < acc {
				break
			}
		}
		out = append(out, candidates[i].coord)
		total -= candidates[i].score
		candidates = append(candidates[:i], candidates[i+1:]...)
	}
	return out, nil
}

// PlaceUniform picks n distinct empty cells uniformly at random.
func PlaceUniform(g *Grid, n int, rng Picker) ([]Coord, error) {
	var empty []Coord
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := Coord{X: x, Y: y}
			if !g.Occupied(c) {
				empty = append(empty, c)
			}
		}
	}
	if len(empty) < n {
		return nil, ErrNoRoom
	}
	out := make([]Coord, 0, n)
	for len(out) < n {
		i := rng.Intn(len(empty))
		out = append(out, empty[i])
		empty[i] = empty[len(empty)-1]
		empty = empty[:len(empty)-1]
	}
	return out, nil
}
