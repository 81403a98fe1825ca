package metrics

import (
	coremetrics "github.com/kilianp07/fleetcharge/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	evaluations *prometheus.CounterVec
	coverage    prometheus.Gauge
	capex       prometheus.Gauge
	peak        prometheus.Gauge
	ceiling     prometheus.Gauge
	candidates  prometheus.Gauge
	duration    prometheus.Histogram
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetcharge_evaluations_total",
			Help: "Configurations scheduled and ranked",
		}, []string{"rank_class"}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetcharge_best_coverage_ratio",
			Help: "Energy coverage of the recommended configuration",
		}),
		capex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetcharge_best_capital_cost",
			Help: "Capital cost of the recommended configuration",
		}),
		peak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetcharge_best_peak_kw",
			Help: "Peak site power of the recommended configuration",
		}),
		ceiling: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetcharge_best_ceiling_kw",
			Help: "Power ceiling applied to the recommended configuration",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetcharge_search_candidates",
			Help: "Candidate configurations of the last search",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetcharge_search_duration_seconds",
			Help:    "Wall time of a configuration search",
			Buckets: prometheus.DefBuckets,
		}),
	}
	var err error
	if s.evaluations, err = register(reg, s.evaluations); err != nil {
		return nil, err
	}
	for _, g := range []*prometheus.Gauge{&s.coverage, &s.capex, &s.peak, &s.ceiling, &s.candidates} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEvaluations counts the evaluations and exposes the best one.
func (s *PromSink) RecordEvaluations(evs []coremetrics.EvaluationEvent) error {
	for _, ev := range evs {
		class := "other"
		if ev.Rank == 1 {
			class = "best"
			s.coverage.Set(ev.Coverage)
			s.capex.Set(ev.CapitalCost)
			s.peak.Set(ev.PeakKW)
			s.ceiling.Set(ev.CeilingKW)
		}
		s.evaluations.WithLabelValues(class).Inc()
	}
	return nil
}

// RecordSearch observes the search duration and candidate count.
func (s *PromSink) RecordSearch(ev coremetrics.SearchEvent) error {
	s.candidates.Set(float64(ev.Candidates))
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}
