package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Diagnostics counts events that are easy to miss in aggregate statistics:
// blocked births, failed dispersals, aborted fissions and the like.
type Diagnostics struct {
	Births            prometheus.Counter
	BirthDispersals   prometheus.Counter
	Deaths            prometheus.Counter
	CapacityBlocked   prometheus.Counter
	SingletonMatings  prometheus.Counter
	SingletonRounds   prometheus.Counter
	Fissions          prometheus.Counter
	FissionAborts     *prometheus.CounterVec // reason: no_space, partition
	GroupDispersals   prometheus.Counter
	DispersalFailures prometheus.Counter
	GroupDeaths       prometheus.Counter
	Offers            *prometheus.CounterVec // outcome: accepted, rejected

	Population prometheus.Gauge
	Groups     prometheus.Gauge
}

// NewDiagnostics builds the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewDiagnostics(reg prometheus.Registerer) *Diagnostics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ugworld", Name: name, Help: help})
	}
	d := &Diagnostics{
		Births:            counter("births_total", "Agents born."),
		BirthDispersals:   counter("birth_dispersals_total", "Births placed into a neighbouring group."),
		Deaths:            counter("deaths_total", "Agents that died of age."),
		CapacityBlocked:   counter("capacity_blocked_total", "Reproduction attempts blocked by the population cap."),
		SingletonMatings:  counter("singleton_matings_total", "Sexual reproduction attempts without a groupmate."),
		SingletonRounds:   counter("singleton_rounds_total", "Ultimatum rounds skipped in one-member groups."),
		Fissions:          counter("fissions_total", "Groups split in two."),
		GroupDispersals:   counter("group_dispersals_total", "Undersized groups merged into a neighbour."),
		DispersalFailures: counter("dispersal_failures_total", "Undersized groups with no group to merge into."),
		GroupDeaths:       counter("group_deaths_total", "Empty groups removed from the grid."),
		FissionAborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ugworld", Name: "fission_aborts_total", Help: "Fissions abandoned, by reason.",
		}, []string{"reason"}),
		Offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ugworld", Name: "offers_total", Help: "Ultimatum offers, by outcome.",
		}, []string{"outcome"}),
		Population: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ugworld", Name: "population", Help: "Living agents.",
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ugworld", Name: "groups", Help: "Groups on the grid.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			d.Births, d.BirthDispersals, d.Deaths, d.CapacityBlocked,
			d.SingletonMatings, d.SingletonRounds, d.Fissions, d.FissionAborts,
			d.GroupDispersals, d.DispersalFailures, d.GroupDeaths, d.Offers,
			d.Population, d.Groups,
		)
	}
	return d
}
