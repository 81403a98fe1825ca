// Package runlog opens the run-log store selected by configuration.
package runlog

import (
	"github.com/kilianp07/fleetcharge/core/runlog"
)

// NewStore returns the store for cfg.Backend.
func NewStore(cfg runlog.Config) (runlog.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case runlog.BackendJSONL:
		return runlog.NewJSONLStore(cfg.Path)
	case runlog.BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return runlog.NopStore{}, nil
	}
}
