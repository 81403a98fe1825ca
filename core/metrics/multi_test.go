package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fullSink struct {
	evaluations int
	searches    []SearchEvent
	timelines   []TimelineEvent
	err         error
}

func (f *fullSink) RecordEvaluations(evs []EvaluationEvent) error {
	f.evaluations += len(evs)
	return f.err
}

func (f *fullSink) RecordSearch(ev SearchEvent) error {
	f.searches = append(f.searches, ev)
	return f.err
}

func (f *fullSink) RecordTimeline(ev TimelineEvent) error {
	f.timelines = append(f.timelines, ev)
	return f.err
}

type evaluationsOnly struct{ evaluations int }

func (e *evaluationsOnly) RecordEvaluations(evs []EvaluationEvent) error {
	e.evaluations += len(evs)
	return nil
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &fullSink{}, &fullSink{}
	basic := &evaluationsOnly{}
	m := NewMultiSink(a, basic, b)

	evs := []EvaluationEvent{{RunID: "r1", Label: "2xAC_22", Rank: 1}, {RunID: "r1", Label: "1xDC_50", Rank: 2}}
	require.NoError(t, m.RecordEvaluations(evs))
	require.NoError(t, m.RecordSearch(SearchEvent{RunID: "r1", Candidates: 14, Duration: time.Second}))
	require.NoError(t, m.RecordTimeline(TimelineEvent{RunID: "r1", SamplesKW: []float64{22, 44}}))

	for _, s := range []*fullSink{a, b} {
		assert.Equal(t, 2, s.evaluations)
		require.Len(t, s.searches, 1)
		assert.Equal(t, 14, s.searches[0].Candidates)
		require.Len(t, s.timelines, 1)
	}
	assert.Equal(t, 2, basic.evaluations)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("influx down")
	failing, after := &fullSink{err: boom}, &fullSink{}
	m := NewMultiSink(failing, after)

	assert.ErrorIs(t, m.RecordEvaluations([]EvaluationEvent{{Rank: 1}}), boom)
	assert.ErrorIs(t, m.RecordSearch(SearchEvent{}), boom)
	assert.Zero(t, after.evaluations)
	assert.Empty(t, after.searches)
}

type closableSink struct {
	evaluationsOnly
	closed bool
}

func (c *closableSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	c := &closableSink{}
	m := NewMultiSink(&fullSink{}, c)
	m.Close()
	assert.True(t, c.closed)
	Close(NopSink{})
}
