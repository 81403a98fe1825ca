// Package metrics defines interfaces for collecting planning metrics.
// Sinks like PromSink and InfluxSink record ranked evaluations, search
// summaries and the power profile of the recommended plan, and can be
// combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
package metrics
