package config

import (
	"fmt"

	"github.com/kilianp07/fleetcharge/core/runlog"
)

// LoggingConfig defines the log level and the run-log store.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level  string        `json:"level"`
	RunLog runlog.Config `json:"run_log"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	c.RunLog.SetDefaults()
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	return c.RunLog.Validate()
}
