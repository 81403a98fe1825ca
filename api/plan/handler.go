// Package plan exposes the optimizer over HTTP.
//
//	POST /api/plan      optimize a fleet, or simulate one configuration
//	GET  /api/catalog   list station types
//	GET  /api/runs      query the run log
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/fleetcharge/app"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/runlog"
	"github.com/kilianp07/fleetcharge/core/search"
)

// maxBody bounds the request payload.
const maxBody = 1 << 20

// Planner is the part of the application service used by the handlers.
type Planner interface {
	Optimize(ctx context.Context, fleet model.Fleet, overrides search.Config) (*app.Report, error)
	Simulate(ctx context.Context, fleet model.Fleet, cfg model.Configuration) (*app.Report, error)
	Catalog() model.Catalog
	History(ctx context.Context, q runlog.Query) ([]runlog.Record, error)
}

// Request is the body of POST /api/plan. When Stations is set the fleet is
// simulated on that configuration instead of searched.
type Request struct {
	Fleet    model.Fleet         `json:"fleet"`
	Search   search.Config       `json:"search"`
	Stations model.Configuration `json:"stations,omitempty"`
}

// NewPlanHandler returns the POST /api/plan handler.
func NewPlanHandler(p Planner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		var (
			rep *app.Report
			err error
		)
		if len(req.Stations) > 0 {
			rep, err = p.Simulate(r.Context(), req.Fleet, req.Stations)
		} else {
			rep, err = p.Optimize(r.Context(), req.Fleet, req.Search)
		}
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, rep)
	})
}

// NewCatalogHandler returns the GET /api/catalog handler.
func NewCatalogHandler(p Planner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, p.Catalog())
	})
}

// NewRunsHandler returns the GET /api/runs handler. Query parameters start
// and end (RFC3339), run_id and mode filter the records.
func NewRunsHandler(p Planner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := runlog.Query{RunID: r.URL.Query().Get("run_id"), Mode: r.URL.Query().Get("mode")}
		for key, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
			if s := r.URL.Query().Get(key); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					http.Error(w, "invalid "+key+": "+err.Error(), http.StatusBadRequest)
					return
				}
				*dst = t
			}
		}
		records, err := p.History(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		writeJSON(w, records)
	})
}

// NewMux mounts every handler.
func NewMux(p Planner) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/plan", NewPlanHandler(p))
	mux.Handle("/api/catalog", NewCatalogHandler(p))
	mux.Handle("/api/runs", NewRunsHandler(p))
	return mux
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		// remaining failures come from invalid fleets or parameters
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
