// Package runlog records optimizer runs for later audit.
package runlog

import (
	"context"
	"time"
)

// Record captures one optimizer or simulation run.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	Vehicles    int       `json:"vehicles"`
	RequiredKWh float64   `json:"required_kwh"`
	Candidates  int       `json:"candidates"`
	Best        string    `json:"best"`
	Coverage    float64   `json:"coverage"`
	CapitalCost float64   `json:"capital_cost"`
	Ranking     []Entry   `json:"ranking"`
}

// Entry is one ranked configuration of a run.
type Entry struct {
	Rank        int     `json:"rank"`
	Label       string  `json:"label"`
	Coverage    float64 `json:"coverage"`
	Efficiency  float64 `json:"efficiency"`
	CapitalCost float64 `json:"capital_cost"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start time.Time
	End   time.Time
	RunID string
	Mode  string
}

// Match reports whether r passes the filters of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Mode != "" && r.Mode != q.Mode {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
