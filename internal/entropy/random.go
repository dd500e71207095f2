// Package entropy provides the random source shared by every stochastic
// decision in a run, and the truncated-normal endowment sampler.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
)

// Source is the random-number service consumed by the simulation.
// A single Source is shared by all entities of a run; it is not safe for
// concurrent use.
type Source interface {
	Intn(n int) int
	Float64() float64
	Bernoulli(p float64) bool
	NormFloat64() float64
	Shuffle(n int, swap func(i, j int))
}

// Rand is a seeded Source backed by math/rand.
type Rand struct {
	seed int64
	rng  *mrand.Rand
}

// New creates a seeded source. A zero seed is replaced by one drawn from
// crypto/rand so that unseeded runs differ.
func New(seed int64) *Rand {
	if seed == 0 {
		seed = CryptoSeed()
		slog.Debug("random source seeded from crypto/rand", "seed", seed)
	}
	return &Rand{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with.
func (r *Rand) Seed() int64 { return r.seed }

// Intn returns a uniform int in [0, n). n must be positive.
func (r *Rand) Intn(n int) int { return r.rng.Intn(n) }

// Float64 returns a uniform float in [0, 1).
func (r *Rand) Float64() float64 { return r.rng.Float64() }

// Bernoulli returns true with probability p.
func (r *Rand) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}

// NormFloat64 returns a standard normal draw.
func (r *Rand) NormFloat64() float64 { return r.rng.NormFloat64() }

// Shuffle permutes n elements via swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) { r.rng.Shuffle(n, swap) }

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but keep runs going with a fixed seed.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
