package metrics

import "time"

// EvaluationEvent is one ranked configuration of a planning run.
type EvaluationEvent struct {
	RunID       string
	Label       string
	Rank        int
	Coverage    float64
	CapitalCost float64
	Efficiency  float64
	PeakKW      float64
	CeilingKW   float64
	Sessions    int
	Time        time.Time
}

// MetricsSink records plan evaluations for observability purposes.
type MetricsSink interface {
	RecordEvaluations(evs []EvaluationEvent) error
}

// SearchEvent summarises one configuration search.
type SearchEvent struct {
	RunID      string
	Vehicles   int
	Candidates int
	Feasible   int
	Duration   time.Duration
	Time       time.Time
}

// SearchRecorder records search summaries.
type SearchRecorder interface {
	RecordSearch(ev SearchEvent) error
}

// TimelineEvent carries the site power profile of the recommended plan.
// Sample i covers Start + i*Bucket.
type TimelineEvent struct {
	RunID     string
	Label     string
	Start     time.Time
	Bucket    time.Duration
	SamplesKW []float64
	CeilingKW float64
}

// TimelineRecorder records power profiles.
type TimelineRecorder interface {
	RecordTimeline(ev TimelineEvent) error
}

// NopSink discards all metrics.
type NopSink struct{}

// RecordEvaluations implements MetricsSink.
func (NopSink) RecordEvaluations([]EvaluationEvent) error { return nil }

// RecordSearch implements SearchRecorder.
func (NopSink) RecordSearch(SearchEvent) error { return nil }

// RecordTimeline implements TimelineRecorder.
func (NopSink) RecordTimeline(TimelineEvent) error { return nil }
