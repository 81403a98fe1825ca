package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/fleetcharge/core/kpi"
	corelog "github.com/kilianp07/fleetcharge/core/logger"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
)

// Evaluation is one scheduled configuration with its indicators.
type Evaluation struct {
	Rank          int                 `json:"rank"`
	Label         string              `json:"label"`
	Configuration model.Configuration `json:"configuration"`
	KPI           kpi.KPI             `json:"kpi"`
	// Stress holds the indicators of the degraded day when it was run.
	Stress *kpi.KPI          `json:"stress,omitempty"`
	Result *scheduler.Result `json:"-"`
}

// Outcome is the ranked result of a search. Evaluations keeps every
// feasible configuration so callers can pick another one than the first.
type Outcome struct {
	Evaluations []Evaluation  `json:"evaluations"`
	Candidates  int           `json:"candidates"`
	Duration    time.Duration `json:"duration"`
}

// Best returns the recommended evaluation or nil when nothing was feasible.
func (o *Outcome) Best() *Evaluation {
	if o == nil || len(o.Evaluations) == 0 {
		return nil
	}
	return &o.Evaluations[0]
}

// Top returns at most n evaluations.
func (o *Outcome) Top(n int) []Evaluation {
	if n <= 0 || n > len(o.Evaluations) {
		return o.Evaluations
	}
	return o.Evaluations[:n]
}

// Searcher evaluates candidate configurations for a fleet.
type Searcher struct {
	Config    Config
	Stress    Stress
	Catalog   model.Catalog
	Costs     kpi.Costs
	Scheduler *scheduler.Scheduler
	Generator CandidateGenerator
	Logger    corelog.Logger
}

// NewSearcher validates cfg and builds its candidate generator.
func NewSearcher(cfg Config, stress Stress, sched *scheduler.Scheduler, costs kpi.Costs, log corelog.Logger) (*Searcher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stress.SetDefaults()
	if err := stress.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	gen, err := NewGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		Config:    cfg,
		Stress:    stress,
		Catalog:   sched.Catalog,
		Costs:     costs,
		Scheduler: sched,
		Generator: gen,
		Logger:    corelog.OrNop(log),
	}, nil
}

// Search schedules demands on every candidate and ranks the results.
// Candidates run in parallel, each on private copies of the demands.
// No candidate or no demand yields an empty outcome, not an error.
func (s *Searcher) Search(ctx context.Context, demands []model.Demand) (*Outcome, error) {
	log := corelog.OrNop(s.Logger)
	start := time.Now()
	out := &Outcome{}
	if len(demands) == 0 {
		log.Warnf("search: empty fleet, nothing to plan")
		return out, nil
	}
	cands, err := s.Generator.Candidates(ctx, s.Catalog, s.Config)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}
	out.Candidates = len(cands)
	if len(cands) == 0 {
		if len(s.Config.Types) == 0 {
			log.Warnf("search: no station type selected")
		} else {
			log.Warnf("search: no configuration fits budget %.0f and grid %.0f kW", s.Config.Budget, s.Config.GridPowerKW)
		}
		out.Duration = time.Since(start)
		return out, nil
	}

	evals := make([]Evaluation, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	if s.Config.Workers > 0 {
		g.SetLimit(s.Config.Workers)
	}
	for i, c := range cands {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := s.Evaluate(c, demands)
			if err != nil {
				return err
			}
			evals[i] = ev
			log.Debugw("configuration evaluated", map[string]any{
				"configuration": ev.Label,
				"coverage":      ev.KPI.Coverage,
				"capital_cost":  ev.KPI.CapitalCost,
				"efficiency":    ev.KPI.Efficiency,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rank(evals, s.Config.RankBy)
	if s.Stress.Enabled() {
		stressed := s.Stress.Apply(demands)
		for i := range evals[:min(s.Stress.TopN, len(evals))] {
			ev, err := s.Evaluate(evals[i].Configuration, stressed)
			if err != nil {
				return nil, err
			}
			k := ev.KPI
			evals[i].Stress = &k
		}
	}
	out.Evaluations = evals
	out.Duration = time.Since(start)
	best := out.Best()
	log.Infof("search: %d configurations in %s, best %s (coverage %.1f%%, capex %.0f)",
		len(evals), out.Duration.Round(time.Millisecond), best.Label, 100*best.KPI.Coverage, best.KPI.CapitalCost)
	return out, nil
}

// Evaluate schedules demands on one configuration and computes its KPI.
func (s *Searcher) Evaluate(cfg model.Configuration, demands []model.Demand) (Evaluation, error) {
	res, err := s.Scheduler.Run(cfg, demands)
	if err != nil {
		return Evaluation{}, fmt.Errorf("schedule %s: %w", cfg.Label(s.Catalog), err)
	}
	return Evaluation{
		Label:         cfg.Label(s.Catalog),
		Configuration: res.Configuration,
		KPI:           kpi.Compute(res, s.Catalog, s.Costs, s.Config.Alpha),
		Result:        res,
	}, nil
}

// rankDigits is the precision scores are rounded to before comparison, so
// float noise cannot reorder otherwise equal configurations.
const rankDigits = 1e9

func rankScore(f float64) float64 { return math.Round(f*rankDigits) / rankDigits }

// rank orders evaluations and numbers them from 1. Coverage ranking sorts
// by coverage then capital cost; efficiency ranking puts efficiency first.
func rank(evals []Evaluation, by string) {
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i].KPI, evals[j].KPI
		if by == RankByEfficiency {
			if ea, eb := rankScore(a.Efficiency), rankScore(b.Efficiency); ea != eb {
				return ea > eb
			}
		}
		if ca, cb := rankScore(a.Coverage), rankScore(b.Coverage); ca != cb {
			return ca > cb
		}
		return a.CapitalCost < b.CapitalCost
	})
	for i := range evals {
		evals[i].Rank = i + 1
	}
}

// Apply returns copies of demands as they look on the stress day: energy
// grows by ExtraConsumptionPct and arrivals slip by ArrivalDelayMinutes.
// A start pushed past the deadline is clamped to it.
func (s Stress) Apply(demands []model.Demand) []model.Demand {
	out := model.CloneDemands(demands)
	factor := 1 + s.ExtraConsumptionPct/100
	delay := s.ArrivalDelayMinutes / 60
	for i := range out {
		d := &out[i]
		d.EnergyRequiredKWh *= factor
		d.WindowStartH = math.Min(d.WindowStartH+delay, d.WindowEndH)
		d.Reset()
	}
	return out
}
