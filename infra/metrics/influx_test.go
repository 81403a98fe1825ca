package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetcharge/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordEvaluations(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.EvaluationEvent{
		RunID:       "run1",
		Label:       "2xAC_22",
		Rank:        1,
		Coverage:    0.91234,
		CapitalCost: 6300,
		Efficiency:  0.4,
		PeakKW:      22,
		CeilingKW:   22,
		Sessions:    4,
		Time:        now,
	}
	if err := sink.RecordEvaluations([]coremetrics.EvaluationEvent{ev}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("plan_evaluation").
		AddTag("run_id", "run1").
		AddTag("configuration", "2xAC_22").
		AddTag("rank", "1").
		AddField("coverage", 0.912).
		AddField("capital_cost", 6300.0).
		AddField("efficiency", 0.4).
		AddField("peak_kw", 22.0).
		AddField("ceiling_kw", 22.0).
		AddField("sessions", 4).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestInfluxSink_RecordTimeline(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	ev := coremetrics.TimelineEvent{
		RunID:     "run1",
		Label:     "1xDC_30",
		Start:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Bucket:    15 * time.Minute,
		SamplesKW: []float64{0, 30, 12.5},
		CeilingKW: 30,
	}
	if err := sink.RecordTimeline(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 1 {
		t.Fatalf("expected one write, got %d", len(got))
	}
	var lines []string
	for _, l := range strings.Split(got[0], "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 points, got %d", len(lines))
	}
	last := write.NewPointWithMeasurement("site_power").
		AddTag("run_id", "run1").
		AddTag("configuration", "1xDC_30").
		AddField("power_kw", 12.5).
		AddField("ceiling_kw", 30.0).
		SetTime(ev.Start.Add(30 * time.Minute))
	if lines[2] != strings.TrimSpace(write.PointToLineProtocol(last, time.Nanosecond)) {
		t.Errorf("unexpected point: %s", lines[2])
	}
	if err := sink.RecordTimeline(coremetrics.TimelineEvent{}); err != nil {
		t.Fatalf("empty timeline: %v", err)
	}
	if len(bodies()) != 1 {
		t.Fatalf("empty timeline must not write")
	}
}

func TestInfluxSink_RecordSearch(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	err := sink.RecordSearch(coremetrics.SearchEvent{RunID: "r", Vehicles: 5, Candidates: 40, Feasible: 40, Duration: 1500 * time.Microsecond, Time: now})
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("plan_search").
		AddTag("run_id", "r").
		AddField("vehicles", 5).
		AddField("candidates", 40).
		AddField("feasible", 40).
		AddField("duration_ms", 1.5).
		SetTime(now)
	got := bodies()
	if len(got) != 1 || got[0] != strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)) {
		t.Errorf("unexpected body: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
