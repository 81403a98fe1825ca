package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetcharge/core/factory"
	"github.com/kilianp07/fleetcharge/core/kpi"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
)

func newTestSearcher(t *testing.T, cfg Config, stress Stress) *Searcher {
	t.Helper()
	sched, err := scheduler.New(scheduler.Params{}, model.DefaultCatalog(), nil)
	require.NoError(t, err)
	s, err := NewSearcher(cfg, stress, sched, kpi.DefaultCosts(), nil)
	require.NoError(t, err)
	return s
}

func TestGridGeneratorBounds(t *testing.T) {
	cfg := Config{Types: []string{"DC_30", "AC_22"}}
	cfg.SetDefaults()
	g := &GridGenerator{}
	cands, err := g.Candidates(context.Background(), model.DefaultCatalog(), cfg)
	require.NoError(t, err)
	require.Len(t, cands, 17)
	assert.Equal(t, model.Configuration{"DC_30": 1}, cands[0])
	cat := model.DefaultCatalog()
	for _, c := range cands {
		assert.LessOrEqual(t, c.CapitalCost(cat), cfg.Budget)
		assert.LessOrEqual(t, c.InstalledPowerKW(cat), cfg.GridPowerKW)
	}

	g.MaxCandidates = 4
	cands, err = g.Candidates(context.Background(), model.DefaultCatalog(), cfg)
	require.NoError(t, err)
	assert.Len(t, cands, 4)
}

func TestGridGeneratorTypeLimit(t *testing.T) {
	cfg := Config{Types: []string{"AC_22", "DC_20", "DC_30"}, Budget: 100000, GridPowerKW: 1000, MaxPerType: map[string]int{"AC": 1, "DC": 1}}
	cfg.SetDefaults()
	cands, err := (&GridGenerator{}).Candidates(context.Background(), model.DefaultCatalog(), cfg)
	require.NoError(t, err)
	// 3 singles and 3 pairs, the triple exceeds two types per configuration.
	assert.Len(t, cands, 6)

	cfg.Types = []string{"AC_7"}
	_, err = (&GridGenerator{}).Candidates(context.Background(), model.DefaultCatalog(), cfg)
	assert.ErrorIs(t, err, model.ErrUnknownStationType)
}

func TestGridGeneratorRejectsHugeGrid(t *testing.T) {
	cfg := Config{Budget: 1e12, GridPowerKW: 1e7, MaxPerType: map[string]int{"AC": 1000, "DC": 1000}}
	cfg.SetDefaults()
	_, err := (&GridGenerator{}).Candidates(context.Background(), model.DefaultCatalog(), cfg)
	assert.ErrorIs(t, err, ErrSearchSpaceTooLarge)

	// grid power caps the AC_22 count at 9 whatever max_per_type says
	cfg = Config{Types: []string{"AC_22"}, Budget: 1e12, MaxPerType: map[string]int{"AC": 1000}}
	cfg.SetDefaults()
	cands, err := (&GridGenerator{MaxGridPoints: 10}).Candidates(context.Background(), model.DefaultCatalog(), cfg)
	require.NoError(t, err)
	assert.Len(t, cands, 9)
}

func TestSearchNoTypesSelected(t *testing.T) {
	s := newTestSearcher(t, Config{Types: []string{}, Budget: 50000}, Stress{})
	assert.Empty(t, s.Config.Types, "explicit empty selection survives defaults")
	out, err := s.Search(context.Background(), []model.Demand{model.NewDemand("a", 20, 18, 6)})
	require.NoError(t, err)
	assert.Empty(t, out.Evaluations)
	assert.Zero(t, out.Candidates)
	assert.Nil(t, out.Best())

	cands, err := (&GridGenerator{}).Candidates(context.Background(), model.DefaultCatalog(), Config{Budget: 50000, GridPowerKW: 100})
	require.NoError(t, err)
	assert.Empty(t, cands)

	base := Config{}
	base.SetDefaults()
	assert.Len(t, base.Types, 4)
	assert.Empty(t, base.Merge(Config{Types: []string{}}).Types)
	assert.Len(t, base.Merge(Config{Budget: 1}).Types, 4)
}

func TestSearchBudgetTooLow(t *testing.T) {
	s := newTestSearcher(t, Config{Budget: 1000}, Stress{})
	out, err := s.Search(context.Background(), []model.Demand{model.NewDemand("a", 20, 18, 6)})
	require.NoError(t, err)
	assert.Empty(t, out.Evaluations)
	assert.Zero(t, out.Candidates)
	assert.Nil(t, out.Best())
}

func TestSearchRanksByCoverageThenCost(t *testing.T) {
	s := newTestSearcher(t, Config{Types: []string{"AC_22"}, MaxPerType: map[string]int{"AC": 3}, Workers: 2}, Stress{ExtraConsumptionPct: 50, TopN: 1})
	demands := []model.Demand{model.NewDemand("a", 20, 18, 6), model.NewDemand("b", 20, 18, 6)}
	out, err := s.Search(context.Background(), demands)
	require.NoError(t, err)
	require.Len(t, out.Evaluations, 3)
	assert.Equal(t, 3, out.Candidates)

	best := out.Best()
	assert.Equal(t, "1xAC_22", best.Label)
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, 1.0, best.KPI.Coverage)
	for i := 1; i < len(out.Evaluations); i++ {
		prev, cur := out.Evaluations[i-1].KPI, out.Evaluations[i].KPI
		assert.GreaterOrEqual(t, prev.Coverage, cur.Coverage)
		if prev.Coverage == cur.Coverage {
			assert.LessOrEqual(t, prev.CapitalCost, cur.CapitalCost)
		}
		assert.Equal(t, i+1, out.Evaluations[i].Rank)
	}

	require.NotNil(t, best.Stress)
	assert.InDelta(t, 60.0, best.Stress.RequiredKWh, 1e-9)
	assert.Nil(t, out.Evaluations[1].Stress)
	assert.Equal(t, 20.0, demands[0].EnergyRequiredKWh, "input demands untouched")
	assert.Len(t, out.Top(2), 2)
}

func TestSearchEmptyFleet(t *testing.T) {
	s := newTestSearcher(t, Config{}, Stress{})
	out, err := s.Search(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Evaluations)
}

func TestSearchCanceled(t *testing.T) {
	s := newTestSearcher(t, Config{}, Stress{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Search(ctx, []model.Demand{model.NewDemand("a", 20, 18, 6)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRankByEfficiency(t *testing.T) {
	evals := []Evaluation{
		{Label: "a", KPI: kpi.KPI{Coverage: 1, CapitalCost: 10, Efficiency: 0.2}},
		{Label: "b", KPI: kpi.KPI{Coverage: 0.8, CapitalCost: 5, Efficiency: 0.6}},
		{Label: "c", KPI: kpi.KPI{Coverage: 1, CapitalCost: 5, Efficiency: 0.2}},
	}
	rank(evals, RankByEfficiency)
	assert.Equal(t, []string{"b", "c", "a"}, []string{evals[0].Label, evals[1].Label, evals[2].Label})
	rank(evals, RankByCoverage)
	assert.Equal(t, []string{"c", "a", "b"}, []string{evals[0].Label, evals[1].Label, evals[2].Label})
}

func TestRankIsConsistentForNearTies(t *testing.T) {
	base := []Evaluation{
		{Label: "a", KPI: kpi.KPI{Coverage: 0.5, CapitalCost: 30}},
		{Label: "b", KPI: kpi.KPI{Coverage: 0.5 + 0.6e-9, CapitalCost: 20}},
		{Label: "c", KPI: kpi.KPI{Coverage: 0.5 + 1.2e-9, CapitalCost: 10}},
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var want []string
	for _, perm := range perms {
		evals := make([]Evaluation, len(perm))
		for i, p := range perm {
			evals[i] = base[p]
		}
		rank(evals, RankByCoverage)
		got := []string{evals[0].Label, evals[1].Label, evals[2].Label}
		if want == nil {
			want = got
		}
		assert.Equal(t, want, got, "order depends on input permutation %v", perm)
	}
	// b and c round to the same coverage, so cost decides between them
	assert.Equal(t, []string{"c", "b", "a"}, want)
}

func TestStressApply(t *testing.T) {
	in := []model.Demand{model.NewDemand("a", 20, 23.5, 24)}
	out := Stress{ExtraConsumptionPct: 25, ArrivalDelayMinutes: 60}.Apply(in)
	assert.InDelta(t, 25.0, out[0].EnergyRequiredKWh, 1e-9)
	assert.InDelta(t, 25.0, out[0].EnergyRemainingKWh, 1e-9)
	assert.Equal(t, 24.0, out[0].WindowStartH)
	assert.Equal(t, 23.5, in[0].WindowStartH)
	assert.False(t, Stress{TopN: 3}.Enabled())
}

func TestConfigMergeAndValidate(t *testing.T) {
	base := Config{}
	base.SetDefaults()
	merged := base.Merge(Config{Budget: 50000, MaxPerType: map[string]int{"DC_90": 1}, RankBy: RankByEfficiency})
	assert.Equal(t, 50000.0, merged.Budget)
	assert.Equal(t, 100.0, merged.GridPowerKW)
	assert.Equal(t, 1, merged.MaxPerType["DC_90"])
	assert.Equal(t, 20, merged.MaxPerType["AC"])
	assert.NotContains(t, base.MaxPerType, "DC_90")
	require.NoError(t, merged.Validate())

	bad := base.Merge(Config{RankBy: "price"})
	assert.Error(t, bad.Validate())
}

func TestGeneratorRegistry(t *testing.T) {
	assert.Contains(t, Generators(), "grid")
	g, err := NewGenerator(factory.ModuleConfig{Conf: map[string]any{"max_candidates": 5}})
	require.NoError(t, err)
	assert.Equal(t, "grid", g.Name())
	assert.Equal(t, 5, g.(*GridGenerator).MaxCandidates)
	_, err = NewGenerator(factory.ModuleConfig{Type: "annealing"})
	assert.Error(t, err)
}
