// Package app wires configuration, the optimizer and its outputs (metrics,
// run log and schedule publisher) into one service used by the CLI and the
// HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetcharge/config"
	coremetrics "github.com/kilianp07/fleetcharge/core/metrics"
	"github.com/kilianp07/fleetcharge/core/model"
	coremqtt "github.com/kilianp07/fleetcharge/core/mqtt"
	"github.com/kilianp07/fleetcharge/core/runlog"
	"github.com/kilianp07/fleetcharge/core/scheduler"
	"github.com/kilianp07/fleetcharge/core/search"
	"github.com/kilianp07/fleetcharge/infra/logger"
	_ "github.com/kilianp07/fleetcharge/infra/metrics"
	"github.com/kilianp07/fleetcharge/infra/mqtt"
	infrarunlog "github.com/kilianp07/fleetcharge/infra/runlog"
)

// ErrPublishDisabled is returned by Publish when no broker is configured.
var ErrPublishDisabled = errors.New("schedule publishing disabled: no mqtt broker configured")

const (
	ModeOptimize = "optimize"
	ModeSimulate = "simulate"
)

// Service runs optimizations and simulations for a site.
type Service struct {
	cfg       *config.Config
	catalog   model.Catalog
	sched     *scheduler.Scheduler
	sink      coremetrics.MetricsSink
	store     runlog.Store
	publisher coremqtt.Publisher
	log       logger.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the metrics sink built from configuration.
func WithSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the run-log store built from configuration.
func WithStore(s runlog.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the MQTT publisher built from configuration.
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.publisher = p } }

// WithClock sets the time source.
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// New creates a Service from the configuration. Collaborators not provided
// through options are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	svc := &Service{cfg: cfg, catalog: cfg.StationCatalog(), log: logger.New("service"), now: time.Now}
	for _, o := range opts {
		o(svc)
	}

	sched, err := scheduler.New(cfg.Scheduler, svc.catalog, logger.New("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	svc.sched = sched

	// built collects the collaborators New opened so a later failure can
	// release them in reverse order.
	var built []func()
	release := func() {
		for i := len(built) - 1; i >= 0; i-- {
			built[i]()
		}
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
		built = append(built, func() { coremetrics.Close(sink) })
	}
	if svc.store == nil {
		store, err := infrarunlog.NewStore(cfg.Logging.RunLog)
		if err != nil {
			release()
			return nil, fmt.Errorf("run log: %w", err)
		}
		svc.store = store
		built = append(built, func() { _ = store.Close() })
	}
	if svc.publisher == nil && cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			release()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Catalog returns the station types available to the service.
func (s *Service) Catalog() model.Catalog { return s.catalog }

// Optimize searches the configuration space for fleet. Non-zero fields of
// overrides replace the configured search settings for this run only.
func (s *Service) Optimize(ctx context.Context, fleet model.Fleet, overrides search.Config) (*Report, error) {
	demands, err := model.ExpandFleet(fleet)
	if err != nil {
		return nil, err
	}
	searcher, err := search.NewSearcher(s.cfg.Search.Merge(overrides), s.cfg.Stress, s.sched, s.cfg.Costs, logger.New("search"))
	if err != nil {
		return nil, err
	}
	out, err := searcher.Search(ctx, demands)
	if err != nil {
		return nil, err
	}
	rep := s.newReport(ModeOptimize, demands, out)
	s.record(ctx, rep, out)
	return rep, nil
}

// Simulate schedules fleet on one given configuration.
func (s *Service) Simulate(ctx context.Context, fleet model.Fleet, cfg model.Configuration) (*Report, error) {
	if err := cfg.Validate(s.catalog); err != nil {
		return nil, err
	}
	demands, err := model.ExpandFleet(fleet)
	if err != nil {
		return nil, err
	}
	searcher, err := search.NewSearcher(s.cfg.Search, s.cfg.Stress, s.sched, s.cfg.Costs, logger.New("search"))
	if err != nil {
		return nil, err
	}
	start := s.now()
	ev, err := searcher.Evaluate(cfg, demands)
	if err != nil {
		return nil, err
	}
	ev.Rank = 1
	if s.cfg.Stress.Enabled() {
		st, err := searcher.Evaluate(cfg, s.cfg.Stress.Apply(demands))
		if err != nil {
			return nil, err
		}
		k := st.KPI
		ev.Stress = &k
	}
	out := &search.Outcome{Evaluations: []search.Evaluation{ev}, Candidates: 1, Duration: s.now().Sub(start)}
	rep := s.newReport(ModeSimulate, demands, out)
	s.record(ctx, rep, out)
	return rep, nil
}

// Publish sends the recommended plan of rep to the stations. Planning hour
// 0 maps to midnight of day.
func (s *Service) Publish(ctx context.Context, rep *Report, day time.Time) error {
	if s.publisher == nil {
		return ErrPublishDisabled
	}
	if rep == nil || rep.result == nil {
		return fmt.Errorf("report has no plan to publish")
	}
	var errs []error
	for _, st := range coremqtt.Schedules(rep.RunID, day, rep.result.Stations, s.now()) {
		if err := s.publisher.PublishSchedule(ctx, st); err != nil {
			errs = append(errs, fmt.Errorf("station %s: %w", st.StationID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Infof("published %d station schedules for run %s", len(rep.result.Stations), rep.RunID)
	return nil
}

// History returns the recorded runs matching q.
func (s *Service) History(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return s.store.Query(ctx, q)
}

// Close releases the publisher, the metrics sink and the run log.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	coremetrics.Close(s.sink)
	return s.store.Close()
}

func (s *Service) newReport(mode string, demands []model.Demand, out *search.Outcome) *Report {
	rep := &Report{
		RunID:       uuid.NewString(),
		Mode:        mode,
		GeneratedAt: s.now(),
		Vehicles:    len(demands),
		RequiredKWh: model.TotalEnergy(demands),
		Candidates:  out.Candidates,
		Duration:    out.Duration,
		Ranking:     exportRanking(out.Evaluations),
	}
	if best := out.Best(); best != nil {
		rep.Recommendation = newPlan(*best, s.cfg.Scheduler.FullToleranceKWh)
		rep.result = best.Result
	}
	return rep
}

// record forwards the run to metrics and the run log. Failures are logged
// and never fail the run.
func (s *Service) record(ctx context.Context, rep *Report, out *search.Outcome) {
	events := make([]coremetrics.EvaluationEvent, 0, len(out.Evaluations))
	for _, e := range out.Evaluations {
		events = append(events, coremetrics.EvaluationEvent{
			RunID:       rep.RunID,
			Label:       e.Label,
			Rank:        e.Rank,
			Coverage:    e.KPI.Coverage,
			CapitalCost: e.KPI.CapitalCost,
			Efficiency:  e.KPI.Efficiency,
			PeakKW:      e.KPI.PeakKW,
			CeilingKW:   e.KPI.CeilingKW,
			Sessions:    e.KPI.Sessions,
			Time:        rep.GeneratedAt,
		})
	}
	if len(events) > 0 {
		if err := s.sink.RecordEvaluations(events); err != nil {
			s.log.Warnf("record evaluations: %v", err)
		}
	}
	if r, ok := s.sink.(coremetrics.SearchRecorder); ok {
		ev := coremetrics.SearchEvent{
			RunID:      rep.RunID,
			Vehicles:   rep.Vehicles,
			Candidates: out.Candidates,
			Feasible:   len(out.Evaluations),
			Duration:   out.Duration,
			Time:       rep.GeneratedAt,
		}
		if err := r.RecordSearch(ev); err != nil {
			s.log.Warnf("record search: %v", err)
		}
	}
	if r, ok := s.sink.(coremetrics.TimelineRecorder); ok && rep.result != nil && rep.result.Timeline != nil {
		tl := rep.result.Timeline
		ev := coremetrics.TimelineEvent{
			RunID:     rep.RunID,
			Label:     rep.Recommendation.Configuration,
			Start:     midnight(rep.GeneratedAt),
			Bucket:    time.Duration(tl.BucketHours * float64(time.Hour)),
			SamplesKW: tl.Samples,
			CeilingKW: tl.CeilingKW,
		}
		if err := r.RecordTimeline(ev); err != nil {
			s.log.Warnf("record timeline: %v", err)
		}
	}

	rec := runlog.Record{
		Timestamp:   rep.GeneratedAt,
		RunID:       rep.RunID,
		Mode:        rep.Mode,
		Vehicles:    rep.Vehicles,
		RequiredKWh: rep.RequiredKWh,
		Candidates:  rep.Candidates,
	}
	if p := rep.Recommendation; p != nil {
		rec.Best = p.Configuration
		rec.Coverage = p.KPI.Coverage
		rec.CapitalCost = p.KPI.CapitalCost
	}
	for _, r := range rep.Ranking {
		rec.Ranking = append(rec.Ranking, runlog.Entry{
			Rank:        r.Rank,
			Label:       r.Configuration,
			Coverage:    r.Coverage,
			Efficiency:  r.Efficiency,
			CapitalCost: r.CapitalCost,
		})
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Warnf("append run log: %v", err)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
