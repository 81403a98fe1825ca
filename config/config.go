// Package config loads the application configuration from a YAML or JSON
// file with environment overrides.
//
// Environment variables use the FC_ prefix and a double underscore as the
// section separator, e.g. FC_SEARCH__BUDGET=50000.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetcharge/core/kpi"
	"github.com/kilianp07/fleetcharge/core/metrics"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
	"github.com/kilianp07/fleetcharge/core/search"
	"github.com/kilianp07/fleetcharge/infra/mqtt"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "FC_"

type Config struct {
	Scheduler scheduler.Params    `json:"scheduler"`
	Search    search.Config       `json:"search"`
	Stress    search.Stress       `json:"stress"`
	Catalog   []model.StationType `json:"catalog"`
	Costs     kpi.Costs           `json:"costs"`
	Metrics   metrics.Config      `json:"metrics"`
	Logging   LoggingConfig       `json:"logging"`
	MQTT      mqtt.Config         `json:"mqtt"`
	API       APIConfig           `json:"api"`
}

// APIConfig defines the HTTP listener of serve mode.
type APIConfig struct {
	Addr string `json:"addr"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads path and applies FC_ environment overrides. An empty path
// loads defaults plus environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.Search.SetDefaults()
	c.Stress.SetDefaults()
	c.Costs.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.StationCatalog().Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Stress.Validate(); err != nil {
		return fmt.Errorf("stress: %w", err)
	}
	if err := c.Costs.Validate(); err != nil {
		return fmt.Errorf("costs: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return nil
}

// StationCatalog returns the configured catalog or the built-in one.
func (c Config) StationCatalog() model.Catalog {
	if len(c.Catalog) == 0 {
		return model.DefaultCatalog()
	}
	return model.Catalog(c.Catalog)
}
