package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts analytics events surfaced at /metrics.
type Metrics struct {
	Records    prometheus.Counter
	Underflows prometheus.Counter
	SinkErrors prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ugworld", Subsystem: "experiment", Name: name, Help: help})
	}
	m := &Metrics{
		Records:    counter("records_total", "Sampling records emitted."),
		Underflows: counter("rejection_underflows_total", "Rejection samples skipped because the population was smaller than the sample."),
		SinkErrors: counter("sink_errors_total", "Record sink writes that failed."),
	}
	if reg != nil {
		reg.MustRegister(m.Records, m.Underflows, m.SinkErrors)
	}
	return m
}
