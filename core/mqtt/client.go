package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/fleetcharge/core/model"
)

// SessionSlot is one booked session expressed in wall-clock time.
type SessionSlot struct {
	DemandID  string    `json:"demand_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	EnergyKWh float64   `json:"energy_kwh"`
	PeakKW    float64   `json:"peak_kw"`
}

// StationSchedule is the plan of one charging point, published so the
// point controller can enforce it.
type StationSchedule struct {
	RunID     string        `json:"run_id"`
	StationID string        `json:"station_id"`
	Type      string        `json:"type"`
	PowerKW   float64       `json:"power_kw"`
	Sessions  []SessionSlot `json:"sessions"`
	Generated time.Time     `json:"generated"`
}

// Publisher delivers station schedules to the site.
type Publisher interface {
	PublishSchedule(ctx context.Context, s StationSchedule) error
	Close()
}

// Schedules converts planned stations into publishable schedules. Hour h of
// the planning axis maps to day + h.
func Schedules(runID string, day time.Time, stations []*model.Station, now time.Time) []StationSchedule {
	out := make([]StationSchedule, 0, len(stations))
	at := func(h float64) time.Time {
		return day.Add(time.Duration(h * float64(time.Hour))).Truncate(time.Second)
	}
	for _, st := range stations {
		sched := StationSchedule{
			RunID:     runID,
			StationID: st.ID,
			Type:      st.Type,
			PowerKW:   st.PowerKW,
			Sessions:  make([]SessionSlot, 0, len(st.Bookings)),
			Generated: now,
		}
		for _, b := range st.Bookings {
			sched.Sessions = append(sched.Sessions, SessionSlot{
				DemandID:  b.DemandID,
				Start:     at(b.StartH),
				End:       at(b.EndH),
				EnergyKWh: b.EnergyKWh,
				PeakKW:    b.PeakKW,
			})
		}
		out = append(out, sched)
	}
	return out
}
