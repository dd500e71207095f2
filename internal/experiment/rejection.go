package experiment

import (
	"log/slog"

	"github.com/talgya/ugworld/internal/agents"
)

// SampleRejection draws sampleSize agents without replacement, pairs them as
// proposer and responder, and returns the share of offers that would be
// rejected. Each offer is also binned by the proposer's offer. It returns 0
// before burn-in or when the population is smaller than the sample.
func (e *Experimenter) SampleRejection(tick uint64) float64 {
	if tick < e.burnIn {
		return 0
	}

	pop := e.population[:0]
	for _, g := range e.pop.LiveGroups() {
		for _, id := range g.Members {
			if a := e.pop.Agent(id); a != nil {
				pop = append(pop, a)
			}
		}
	}
	e.population = pop

	if len(pop) < e.sampleSize {
		e.Metrics.Underflows.Inc()
		slog.Debug("rejection sample underflow", "population", len(pop), "sample", e.sampleSize, "tick", tick)
		return 0
	}

	e.rng.Shuffle(len(pop), func(i, j int) { pop[i], pop[j] = pop[j], pop[i] })
	sample := pop[:e.sampleSize]
	e.rng.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })

	pairs := len(sample) / 2
	proposers := make([]*agents.Agent, 0, pairs)
	responders := make([]*agents.Agent, 0, pairs)
	for j := 0; j+1 < len(sample); j += 2 {
		proposers = append(proposers, sample[j])
		responders = append(responders, sample[j+1])
	}
	e.rng.Shuffle(len(proposers), func(i, j int) { proposers[i], proposers[j] = proposers[j], proposers[i] })
	e.rng.Shuffle(len(responders), func(i, j int) { responders[i], responders[j] = responders[j], responders[i] })

	rejected := 0
	for j, p := range proposers {
		if p.Offer < responders[j].Accept {
			rejected++
			e.rejects.Hit(p.Offer)
		}
		e.rejects.Trial(p.Offer)
	}
	if pairs == 0 {
		return 0
	}
	return float64(rejected) / float64(pairs)
}
