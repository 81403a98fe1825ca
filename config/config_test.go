package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/runlog"
	"github.com/kilianp07/fleetcharge/core/search"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `scheduler:
  min_gap_hours: 1
  ceiling_kw: 60
search:
  budget: 50000
  types: ["AC_22", "DC_30"]
  max_per_type:
    AC: 4
  rank_by: efficiency
stress:
  extra_consumption_pct: 10
costs:
  solar_share: 0.3
metrics:
  sinks:
    - type: "nop"
logging:
  level: debug
  run_log:
    backend: jsonl
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: "depot/stations"
api:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"min_gap_hours", cfg.Scheduler.MinGapHours, 1.0},
		{"ceiling_kw", cfg.Scheduler.CeilingKW, 60.0},
		{"bucket default", cfg.Scheduler.BucketMinutes, 15},
		{"budget", cfg.Search.Budget, 50000.0},
		{"types", len(cfg.Search.Types), 2},
		{"max_per_type", cfg.Search.MaxPerType["AC"], 4},
		{"max_per_type default", cfg.Search.MaxPerType["DC"], 5},
		{"rank_by", cfg.Search.RankBy, search.RankByEfficiency},
		{"stress", cfg.Stress.ExtraConsumptionPct, 10.0},
		{"solar_share", cfg.Costs.SolarShare, 0.3},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"level", cfg.Logging.Level, "debug"},
		{"run_log", cfg.Logging.RunLog.Path, "runs.jsonl"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "depot/stations"},
		{"api", cfg.API.Addr, ":9000"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Len(t, cfg.StationCatalog(), len(model.DefaultCatalog()))
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"search":{"budget":10000}}`), 0o644))
	t.Setenv("FC_SEARCH__BUDGET", "42000")
	t.Setenv("FC_SCHEDULER__CEILING_KW", "35.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42000.0, cfg.Search.Budget)
	assert.Equal(t, 35.5, cfg.Scheduler.CeilingKW)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, cfg.Search.Budget)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, runlog.BackendNone, cfg.Logging.RunLog.Backend)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `catalog:
  - name: AC_7
    class: AC
    power_kw: 7
    hardware_cost: 900
    install_cost: 800
    maintenance_year: 30
search:
  types: ["AC_7"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	cat := cfg.StationCatalog()
	require.Len(t, cat, 1)
	assert.Equal(t, model.ClassAC, cat[0].Class)
	assert.Equal(t, 7.0, cat[0].PowerKW)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logging:\n  level: loud\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("catalog:\n  - {name: X, class: AC, power_kw: 7}\n  - {name: X, class: AC, power_kw: 7}\n"), 0o644))
	_, err = Load(dup)
	assert.Error(t, err)
}
