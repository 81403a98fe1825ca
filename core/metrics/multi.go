package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEvaluations forwards the events to all sinks, returning the first error encountered.
func (m *MultiSink) RecordEvaluations(evs []EvaluationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordEvaluations(evs); err != nil {
			return err
		}
	}
	return nil
}

// RecordSearch forwards search summaries to sinks that support them.
func (m *MultiSink) RecordSearch(ev SearchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SearchRecorder); ok {
			if err := rec.RecordSearch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTimeline forwards power profiles to sinks that support them.
func (m *MultiSink) RecordTimeline(ev TimelineEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TimelineRecorder); ok {
			if err := rec.RecordTimeline(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases s when it holds resources such as a client connection.
func Close(s MetricsSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
