package search

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/fleetcharge/core/factory"
	"github.com/kilianp07/fleetcharge/core/model"
)

// CandidateGenerator produces the configurations a search evaluates. Every
// returned configuration must fit the budget and the grid power.
type CandidateGenerator interface {
	Name() string
	Candidates(ctx context.Context, cat model.Catalog, cfg Config) ([]model.Configuration, error)
}

var generatorRegistry = factory.NewRegistry[CandidateGenerator]()

// RegisterGenerator adds a candidate generator factory identified by name.
func RegisterGenerator(name string, f factory.Factory[CandidateGenerator]) error {
	return generatorRegistry.Register(name, f)
}

// NewGenerator creates a CandidateGenerator from its module configuration.
// An empty type selects the grid generator.
func NewGenerator(mc factory.ModuleConfig) (CandidateGenerator, error) {
	if mc.Type == "" {
		mc.Type = "grid"
	}
	return generatorRegistry.Create(mc)
}

// Generators lists the registered generator names.
func Generators() []string { return generatorRegistry.Names() }

func init() {
	_ = RegisterGenerator("grid", func(conf map[string]any) (CandidateGenerator, error) {
		var g GridGenerator
		if err := factory.Decode(conf, &g); err != nil {
			return nil, err
		}
		return &g, nil
	})
}

// DefaultMaxGridPoints bounds the count combinations a GridGenerator walks
// when MaxGridPoints is unset.
const DefaultMaxGridPoints = 1_000_000

// ErrSearchSpaceTooLarge is returned when the grid exceeds MaxGridPoints.
var ErrSearchSpaceTooLarge = errors.New("search space too large")

// GridGenerator enumerates every count combination of the selected types,
// each bounded by its per-type cap and by how many units the budget and the
// grid power allow.
type GridGenerator struct {
	// MaxCandidates stops the enumeration early when positive.
	MaxCandidates int `json:"max_candidates"`
	// MaxGridPoints rejects grids with more combinations. Zero means
	// DefaultMaxGridPoints.
	MaxGridPoints int `json:"max_grid_points"`
}

// Name implements CandidateGenerator.
func (g *GridGenerator) Name() string { return "grid" }

// Candidates implements CandidateGenerator. Types are walked in catalog
// order with the first type as the outermost loop.
func (g *GridGenerator) Candidates(ctx context.Context, cat model.Catalog, cfg Config) ([]model.Configuration, error) {
	types, err := selectTypes(cat, cfg.Types)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, nil
	}
	bounds := make([]int, len(types))
	for i, t := range types {
		bounds[i] = unitBound(t, cfg)
	}
	limit := g.MaxGridPoints
	if limit <= 0 {
		limit = DefaultMaxGridPoints
	}
	if !gridWithin(bounds, limit) {
		return nil, fmt.Errorf("%w: more than %d combinations, lower max_per_type or budget", ErrSearchSpaceTooLarge, limit)
	}

	var out []model.Configuration
	counts := make([]int, len(types))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c, ok := candidate(types, counts, cfg); ok {
			out = append(out, c)
			if g.MaxCandidates > 0 && len(out) >= g.MaxCandidates {
				return out, nil
			}
		}
		if !advance(counts, bounds) {
			return out, nil
		}
	}
}

// advance increments counts like an odometer whose last digit turns fastest.
func advance(counts, bounds []int) bool {
	for i := len(counts) - 1; i >= 0; i-- {
		if counts[i] < bounds[i] {
			counts[i]++
			return true
		}
		counts[i] = 0
	}
	return false
}

func candidate(types []model.StationType, counts []int, cfg Config) (model.Configuration, bool) {
	var power, cost float64
	distinct := 0
	c := model.Configuration{}
	for i, t := range types {
		if counts[i] == 0 {
			continue
		}
		distinct++
		c[t.Name] = counts[i]
		power += t.PowerKW * float64(counts[i])
		cost += t.UnitCost() * float64(counts[i])
	}
	if distinct == 0 {
		return nil, false
	}
	if cfg.MaxTypesPerConfig > 0 && distinct > cfg.MaxTypesPerConfig {
		return nil, false
	}
	if power > cfg.GridPowerKW+1e-9 || cost > cfg.Budget+1e-9 {
		return nil, false
	}
	return c, true
}

func unitBound(t model.StationType, cfg Config) int {
	limit, ok := cfg.MaxPerType[t.Name]
	if !ok {
		limit = cfg.MaxPerType[string(t.Class)]
	}
	if unit := t.UnitCost(); unit > 0 {
		limit = capUnits(limit, cfg.Budget/unit)
	}
	if t.PowerKW > 0 {
		limit = capUnits(limit, cfg.GridPowerKW/t.PowerKW+1e-9)
	}
	return max(0, limit)
}

// capUnits lowers limit to the whole units in n. The comparison stays in
// float so a huge budget cannot overflow int.
func capUnits(limit int, n float64) int {
	if n = math.Floor(n); n < float64(limit) {
		return int(n)
	}
	return limit
}

// gridWithin reports whether the product of (bound+1) stays within limit.
func gridWithin(bounds []int, limit int) bool {
	points := 1
	for _, b := range bounds {
		if b+1 > limit/points {
			return false
		}
		points *= b + 1
	}
	return true
}

// selectTypes returns the named types in catalog order. No name selects no type.
func selectTypes(cat model.Catalog, names []string) ([]model.StationType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := cat.Lookup(n); !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownStationType, n)
		}
		want[n] = true
	}
	var out []model.StationType
	for _, t := range cat {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}
