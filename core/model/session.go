package model

// Session is a booked charging interval linking one demand to one station.
// Times are hours on the planning axis (0-48).
type Session struct {
	StationID string  `json:"station_id"`
	DemandID  string  `json:"demand_id"`
	StartH    float64 `json:"start_h"`
	EndH      float64 `json:"end_h"`
	EnergyKWh float64 `json:"energy_kwh"`
	// PeakKW is the highest power drawn during the session. It is below the
	// station rating when the site ceiling throttled the session.
	PeakKW float64 `json:"peak_kw"`
}

// Duration returns the session length in hours.
func (s Session) Duration() float64 { return s.EndH - s.StartH }

// AveragePowerKW returns the mean power over the session.
func (s Session) AveragePowerKW() float64 {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	return s.EnergyKWh / d
}
