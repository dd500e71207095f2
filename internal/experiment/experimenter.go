// Package experiment collects population statistics: per-death histograms,
// spatial clustering of groups and rejection sampling, emitted as one Record
// per sampling interval.
package experiment

import (
	"log/slog"

	"github.com/talgya/ugworld/internal/agents"
	"github.com/talgya/ugworld/internal/config"
	"github.com/talgya/ugworld/internal/social"
	"github.com/talgya/ugworld/internal/stats"
)

// Population is the read-only view of the simulation the experimenter walks.
type Population interface {
	LiveGroups() []*social.Group
	Agent(id agents.AgentID) *agents.Agent
	Neighbors(g *social.Group, radius int) []*social.Group
}

// Shuffler randomizes sample order.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Experimenter is the analytics observer. It is stepped once per tick after
// every agent and group.
type Experimenter struct {
	RunID string

	pop        Population
	rng        Shuffler
	burnIn     uint64
	interval   uint64
	sampleSize int
	sinks      []RecordSink

	// Cumulative since Reset, fed by deaths.
	fitness *stats.Bin
	offers  *stats.Bin
	accepts *stats.Bin

	// Per sampling window.
	rejects       *stats.Bin
	clusters      *stats.Bin
	clusterOffers *stats.Bin
	clusterAgents *stats.Bin
	dispersed     float64
	dispersals    float64

	population []*agents.Agent // sampling scratch

	Records int
	Metrics *Metrics
}

// New creates an experimenter over pop using the analytics settings of p.
func New(pop Population, rng Shuffler, p config.Params) *Experimenter {
	interval := p.SamplingInterval
	if interval == 0 {
		interval = 1
	}
	return &Experimenter{
		pop:           pop,
		rng:           rng,
		burnIn:        p.BurnInTicks,
		interval:      interval,
		sampleSize:    p.RejectionSampleSize,
		fitness:       stats.NewBin(p.OfferArray),
		offers:        stats.NewBin(p.OfferArray),
		accepts:       stats.NewBin(p.OfferArray),
		rejects:       stats.NewBin(p.OfferArray),
		clusters:      stats.NewBin(ClusterLadder),
		clusterOffers: stats.NewBin(ClusterLadder),
		clusterAgents: stats.NewBin(ClusterLadder),
		Metrics:       NewMetrics(nil),
	}
}

// AddSink registers a destination for emitted records.
func (e *Experimenter) AddSink(s RecordSink) {
	e.sinks = append(e.sinks, s)
}

// RecordDeath bins a dead agent's offspring count by offer, and its offer
// and accept threshold. Deaths before burn-in are ignored.
func (e *Experimenter) RecordDeath(a *agents.Agent, tick uint64) {
	if tick < e.burnIn {
		return
	}
	e.fitness.Add(a.Offer, float64(a.Offspring), true)
	e.offers.Count(a.Offer)
	e.accepts.Count(a.Accept)
}

// RecordDispersal notes whether a birth was placed in a neighbouring group.
func (e *Experimenter) RecordDispersal(moved bool) {
	if moved {
		e.dispersed++
	}
	e.dispersals++
}

// MeanDispersal is the share of births in this window that dispersed.
func (e *Experimenter) MeanDispersal() float64 {
	if e.dispersals == 0 {
		return 0
	}
	return e.dispersed / e.dispersals
}

// Step emits a record at every sampling interval past burn-in.
func (e *Experimenter) Step(tick uint64) {
	if tick < e.burnIn || tick%e.interval != 0 {
		return
	}
	rec := e.Sample(tick)
	e.Records++
	e.Metrics.Records.Inc()

	for _, s := range e.sinks {
		if err := s.WriteRecord(rec); err != nil {
			e.Metrics.SinkErrors.Inc()
			slog.Warn("record sink failed", "tick", tick, "error", err)
		}
	}

	slog.Info("sample",
		"tick", tick,
		"population", rec.Population,
		"groups", rec.Groups,
		"offer_now", rec.OfferNow,
		"accept_now", rec.AcceptNow,
		"rejection", rec.RejectionRate,
		"dispersal", rec.DispersalRate,
		"cluster_mean", rec.ClusterMean,
	)
}

// Sample computes the record for tick and starts a new sampling window.
func (e *Experimenter) Sample(tick uint64) Record {
	groups := e.pop.LiveGroups()

	n, offerSum, acceptSum := 0, 0.0, 0.0
	for _, g := range groups {
		for _, id := range g.Members {
			a := e.pop.Agent(id)
			if a == nil {
				continue
			}
			offerSum += a.Offer
			acceptSum += a.Accept
			n++
		}
	}

	rec := Record{
		RunID:      e.RunID,
		Tick:       tick,
		Population: n,
		Groups:     len(groups),
		OfferMean:  e.offers.Mean(),
		OfferSD:    e.offers.StandardDeviation(),
		AcceptMean: e.accepts.Mean(),
		AcceptSD:   e.accepts.StandardDeviation(),
	}
	if n > 0 {
		rec.OfferNow = offerSum / float64(n)
		rec.AcceptNow = acceptSum / float64(n)
	}

	rec.RejectionRate = e.SampleRejection(tick)
	rec.OfferFreq = e.offers.FrequencyDistribution()
	rec.RejectionByOffer = e.rejects.MeanDistribution()
	rec.AcceptFreq = e.accepts.FrequencyDistribution()
	rec.DispersalRate = e.MeanDispersal()

	e.ClusterSizes(tick)
	rec.ClusterMean = e.clusters.Mean()
	rec.ClusterSD = e.clusters.StandardDeviation()
	rec.ClusterFreq = e.clusters.FrequencyDistribution()
	rec.ClusterOffer = e.clusterOffers.MeanDistribution()
	rec.ClusterAgents = e.clusterAgents.MeanDistribution()
	rec.FitnessByOffer = e.fitness.MeanDistribution()

	e.resetWindow()
	return rec
}

func (e *Experimenter) resetWindow() {
	e.rejects.Reset()
	e.clusters.Reset()
	e.clusterOffers.Reset()
	e.clusterAgents.Reset()
	e.dispersed, e.dispersals = 0, 0
}

// Reset clears every accumulator, cumulative and windowed.
func (e *Experimenter) Reset() {
	e.fitness.Reset()
	e.offers.Reset()
	e.accepts.Reset()
	e.resetWindow()
}
