package app

import (
	"time"

	"github.com/kilianp07/fleetcharge/core/kpi"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
	"github.com/kilianp07/fleetcharge/core/search"
	"github.com/kilianp07/fleetcharge/pkg/export"
)

// Report is the outcome of one optimize or simulate run.
type Report struct {
	RunID          string              `json:"run_id"`
	Mode           string              `json:"mode"`
	GeneratedAt    time.Time           `json:"generated_at"`
	Vehicles       int                 `json:"vehicles"`
	RequiredKWh    float64             `json:"required_kwh"`
	Candidates     int                 `json:"candidates"`
	Duration       time.Duration       `json:"duration_ns"`
	Recommendation *Plan               `json:"recommendation,omitempty"`
	Ranking        []export.RankingRow `json:"ranking"`

	result *scheduler.Result
}

// Plan is the detailed view of the recommended configuration.
type Plan struct {
	Configuration string              `json:"configuration"`
	Stations      model.Configuration `json:"stations"`
	KPI           kpi.KPI             `json:"kpi"`
	Stress        *kpi.KPI            `json:"stress,omitempty"`
	Sessions      []export.SessionRow `json:"sessions"`
	// Unserved lists vehicles leaving with part of their need undelivered.
	Unserved []string `json:"unserved"`
}

// Result returns the schedule behind the recommendation, nil when nothing
// was feasible.
func (r *Report) Result() *scheduler.Result { return r.result }

func newPlan(ev search.Evaluation, tol float64) *Plan {
	p := &Plan{
		Configuration: ev.Label,
		Stations:      ev.Configuration,
		KPI:           ev.KPI,
		Stress:        ev.Stress,
		Sessions:      export.NewSessionRows(ev.Result),
		Unserved:      []string{},
	}
	if ev.Result != nil {
		for _, d := range ev.Result.Demands {
			if !d.Satisfied(tol) {
				p.Unserved = append(p.Unserved, d.ID)
			}
		}
	}
	return p
}

func exportRanking(evals []search.Evaluation) []export.RankingRow {
	rows := export.NewRanking(evals)
	if rows == nil {
		rows = []export.RankingRow{}
	}
	return rows
}
