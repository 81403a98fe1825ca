package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetcharge/core/metrics"
	"github.com/kilianp07/fleetcharge/infra/logger"
)

// InfluxSink writes planning events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordEvaluations writes one plan_evaluation point per ranked configuration.
func (s *InfluxSink) RecordEvaluations(evs []coremetrics.EvaluationEvent) error {
	if len(evs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pts := make([]*write.Point, 0, len(evs))
	for _, ev := range evs {
		pts = append(pts, evaluationPoint(ev))
	}
	return s.writeAPI.WritePoint(ctx, pts...)
}

func evaluationPoint(ev coremetrics.EvaluationEvent) *write.Point {
	return write.NewPointWithMeasurement("plan_evaluation").
		AddTag("run_id", ev.RunID).
		AddTag("configuration", ev.Label).
		AddTag("rank", strconv.Itoa(ev.Rank)).
		AddField("coverage", round3(ev.Coverage)).
		AddField("capital_cost", round3(ev.CapitalCost)).
		AddField("efficiency", round3(ev.Efficiency)).
		AddField("peak_kw", round3(ev.PeakKW)).
		AddField("ceiling_kw", round3(ev.CeilingKW)).
		AddField("sessions", ev.Sessions).
		SetTime(ev.Time)
}

// RecordSearch writes a plan_search summary point.
func (s *InfluxSink) RecordSearch(ev coremetrics.SearchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_search").
		AddTag("run_id", ev.RunID).
		AddField("vehicles", ev.Vehicles).
		AddField("candidates", ev.Candidates).
		AddField("feasible", ev.Feasible).
		AddField("duration_ms", round3(float64(ev.Duration.Microseconds())/1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTimeline writes one site_power point per bucket of the profile.
func (s *InfluxSink) RecordTimeline(ev coremetrics.TimelineEvent) error {
	if len(ev.SamplesKW) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pts := make([]*write.Point, len(ev.SamplesKW))
	for i, kw := range ev.SamplesKW {
		pts[i] = write.NewPointWithMeasurement("site_power").
			AddTag("run_id", ev.RunID).
			AddTag("configuration", ev.Label).
			AddField("power_kw", round3(kw)).
			AddField("ceiling_kw", round3(ev.CeilingKW)).
			SetTime(ev.Start.Add(time.Duration(i) * ev.Bucket))
	}
	return s.writeAPI.WritePoint(ctx, pts...)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
