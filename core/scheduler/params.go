package scheduler

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when Params cannot drive a run.
var ErrInvalidParams = errors.New("invalid scheduler params")

// Params holds the tunables of one scheduling run. Zero values are replaced
// by defaults in SetDefaults.
type Params struct {
	MinSessionHours  float64 `json:"min_session_hours" yaml:"min_session_hours"`
	MinGapHours      float64 `json:"min_gap_hours" yaml:"min_gap_hours"`
	BucketMinutes    int     `json:"bucket_minutes" yaml:"bucket_minutes"`
	HorizonHours     float64 `json:"horizon_hours" yaml:"horizon_hours"`
	// CeilingKW caps the site draw. 0 lets the installed power govern.
	CeilingKW        float64 `json:"ceiling_kw" yaml:"ceiling_kw"`
	ACMaxSessions    int     `json:"ac_max_sessions" yaml:"ac_max_sessions"`
	DCMaxSessions    int     `json:"dc_max_sessions" yaml:"dc_max_sessions"`
	FullToleranceKWh float64 `json:"full_tolerance_kwh" yaml:"full_tolerance_kwh"`
	// MaxRounds bounds the greedy loop. 0 means 96 rounds per demand.
	MaxRounds        int     `json:"max_rounds" yaml:"max_rounds"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	var p Params
	p.SetDefaults()
	return p
}

// SetDefaults fills unset fields.
func (p *Params) SetDefaults() {
	if p.MinSessionHours == 0 {
		p.MinSessionHours = 0.25
	}
	if p.MinGapHours == 0 {
		p.MinGapHours = 0.5
	}
	if p.BucketMinutes == 0 {
		p.BucketMinutes = 15
	}
	if p.HorizonHours == 0 {
		p.HorizonHours = 48
	}
	if p.ACMaxSessions == 0 {
		p.ACMaxSessions = 3
	}
	if p.DCMaxSessions == 0 {
		p.DCMaxSessions = 8
	}
	if p.FullToleranceKWh == 0 {
		p.FullToleranceKWh = 0.01
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.BucketMinutes <= 0:
		return fmt.Errorf("%w: bucket_minutes must be positive", ErrInvalidParams)
	case p.MinSessionHours < 0:
		return fmt.Errorf("%w: min_session_hours must not be negative", ErrInvalidParams)
	case p.MinGapHours < 0:
		return fmt.Errorf("%w: min_gap_hours must not be negative", ErrInvalidParams)
	case p.HorizonHours <= 0:
		return fmt.Errorf("%w: horizon_hours must be positive", ErrInvalidParams)
	case p.CeilingKW < 0:
		return fmt.Errorf("%w: ceiling_kw must not be negative", ErrInvalidParams)
	case p.ACMaxSessions <= 0 || p.DCMaxSessions <= 0:
		return fmt.Errorf("%w: session limits must be positive", ErrInvalidParams)
	case p.FullToleranceKWh < 0:
		return fmt.Errorf("%w: full_tolerance_kwh must not be negative", ErrInvalidParams)
	case p.MaxRounds < 0:
		return fmt.Errorf("%w: max_rounds must not be negative", ErrInvalidParams)
	}
	return nil
}

// BucketHours returns the timeline resolution in hours.
func (p Params) BucketHours() float64 { return float64(p.BucketMinutes) / 60 }

func (p Params) roundLimit(demands int) int {
	if p.MaxRounds > 0 {
		return p.MaxRounds
	}
	if demands < 1 {
		demands = 1
	}
	return 96 * demands
}
