package model

import (
	"fmt"
	"sort"
)

// Station is one physical charging point with its booking ledger.
type Station struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Class       StationClass `json:"class"`
	PowerKW     float64      `json:"power_kw"`
	MaxSessions int          `json:"max_sessions"`
	Bookings    []Session    `json:"bookings"`
}

// HasCapacity reports whether another session may be booked.
func (s *Station) HasCapacity() bool { return len(s.Bookings) < s.MaxSessions }

// Book inserts the session keeping the ledger ordered by start time.
func (s *Station) Book(sess Session) {
	i := sort.Search(len(s.Bookings), func(i int) bool { return s.Bookings[i].StartH > sess.StartH })
	s.Bookings = append(s.Bookings, Session{})
	copy(s.Bookings[i+1:], s.Bookings[i:])
	s.Bookings[i] = sess
}

// BusyHours sums the booked session durations.
func (s *Station) BusyHours() float64 {
	total := 0.0
	for _, b := range s.Bookings {
		total += b.Duration()
	}
	return total
}

// DeliveredKWh sums the energy of every booking.
func (s *Station) DeliveredKWh() float64 {
	total := 0.0
	for _, b := range s.Bookings {
		total += b.EnergyKWh
	}
	return total
}

// Materialize turns a configuration into individual stations with empty
// ledgers. Stations follow catalog order and are named "{type}_{n}" starting
// at 1. acMax and dcMax are the session limits applied when a type does not
// override them.
func Materialize(cfg Configuration, cat Catalog, acMax, dcMax int) ([]*Station, error) {
	if err := cfg.Validate(cat); err != nil {
		return nil, err
	}
	var out []*Station
	for _, t := range cat {
		q := cfg[t.Name]
		limit := t.MaxSessions
		if limit <= 0 {
			limit = dcMax
			if t.Class == ClassAC {
				limit = acMax
			}
		}
		for i := 0; i < q; i++ {
			out = append(out, &Station{
				ID:          fmt.Sprintf("%s_%d", t.Name, i+1),
				Type:        t.Name,
				Class:       t.Class,
				PowerKW:     t.PowerKW,
				MaxSessions: limit,
			})
		}
	}
	return out, nil
}
