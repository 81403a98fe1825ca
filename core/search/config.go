package search

import (
	"fmt"
	"runtime"

	"github.com/kilianp07/fleetcharge/core/factory"
)

// Ranking keys.
const (
	RankByCoverage   = "coverage"
	RankByEfficiency = "efficiency"
)

// Config bounds the configuration space and selects the ranking.
type Config struct {
	Budget      float64  `json:"budget" yaml:"budget"`
	GridPowerKW float64  `json:"grid_power_kw" yaml:"grid_power_kw"`
	Types       []string `json:"types" yaml:"types"`
	// MaxPerType caps the count of one type. Keys are type names or a
	// station class ("AC", "DC"); type names win.
	MaxPerType        map[string]int       `json:"max_per_type" yaml:"max_per_type"`
	MaxTypesPerConfig int                  `json:"max_types_per_config" yaml:"max_types_per_config"`
	Alpha             float64              `json:"alpha" yaml:"alpha"`
	RankBy            string               `json:"rank_by" yaml:"rank_by"`
	Workers           int                  `json:"workers" yaml:"workers"`
	Generator         factory.ModuleConfig `json:"generator" yaml:"generator"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Budget == 0 {
		c.Budget = 30000
	}
	if c.GridPowerKW == 0 {
		c.GridPowerKW = 100
	}
	// An explicit empty list selects nothing and yields an empty ranking.
	if c.Types == nil {
		c.Types = []string{"AC_22", "DC_20", "DC_30", "DC_50"}
	}
	if c.MaxPerType == nil {
		c.MaxPerType = map[string]int{}
	}
	if _, ok := c.MaxPerType["AC"]; !ok {
		c.MaxPerType["AC"] = 20
	}
	if _, ok := c.MaxPerType["DC"]; !ok {
		c.MaxPerType["DC"] = 5
	}
	if c.MaxTypesPerConfig == 0 {
		c.MaxTypesPerConfig = 2
	}
	if c.Alpha == 0 {
		c.Alpha = 0.5
	}
	if c.RankBy == "" {
		c.RankBy = RankByCoverage
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Generator.Type == "" {
		c.Generator.Type = "grid"
	}
}

// Validate checks the search configuration.
func (c Config) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	if c.GridPowerKW < 0 {
		return fmt.Errorf("grid_power_kw must not be negative")
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be within [0,1]")
	}
	if c.RankBy != RankByCoverage && c.RankBy != RankByEfficiency {
		return fmt.Errorf("unknown rank_by %q", c.RankBy)
	}
	if c.MaxTypesPerConfig < 0 {
		return fmt.Errorf("max_types_per_config must not be negative")
	}
	for k, v := range c.MaxPerType {
		if v < 0 {
			return fmt.Errorf("max_per_type %s must not be negative", k)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Merge returns c with every non-zero field of o applied on top. A non-nil
// empty Types list counts as set.
func (c Config) Merge(o Config) Config {
	if o.Budget != 0 {
		c.Budget = o.Budget
	}
	if o.GridPowerKW != 0 {
		c.GridPowerKW = o.GridPowerKW
	}
	if o.Types != nil {
		c.Types = append([]string{}, o.Types...)
	}
	if len(o.MaxPerType) > 0 {
		merged := make(map[string]int, len(c.MaxPerType)+len(o.MaxPerType))
		for k, v := range c.MaxPerType {
			merged[k] = v
		}
		for k, v := range o.MaxPerType {
			merged[k] = v
		}
		c.MaxPerType = merged
	}
	if o.MaxTypesPerConfig != 0 {
		c.MaxTypesPerConfig = o.MaxTypesPerConfig
	}
	if o.Alpha != 0 {
		c.Alpha = o.Alpha
	}
	if o.RankBy != "" {
		c.RankBy = o.RankBy
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.Generator.Type != "" {
		c.Generator = o.Generator
	}
	return c
}

// Stress describes a degraded operating day used to check the robustness
// of the best configurations.
type Stress struct {
	ExtraConsumptionPct float64 `json:"extra_consumption_pct" yaml:"extra_consumption_pct"`
	ArrivalDelayMinutes float64 `json:"arrival_delay_minutes" yaml:"arrival_delay_minutes"`
	TopN                int     `json:"top_n" yaml:"top_n"`
}

// SetDefaults fills unset fields.
func (s *Stress) SetDefaults() {
	if s.TopN == 0 {
		s.TopN = 3
	}
}

// Validate checks the stress parameters.
func (s Stress) Validate() error {
	if s.ExtraConsumptionPct < 0 || s.ArrivalDelayMinutes < 0 || s.TopN < 0 {
		return fmt.Errorf("stress parameters must not be negative")
	}
	return nil
}

// Enabled reports whether the stress day differs from the base day.
func (s Stress) Enabled() bool {
	return s.TopN > 0 && (s.ExtraConsumptionPct > 0 || s.ArrivalDelayMinutes > 0)
}
