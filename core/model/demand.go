package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidQuantity is returned for negative vehicle or station counts.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Demand is the charging need of one vehicle over the planning horizon.
// Window bounds live on a 0-48h axis: a deadline past midnight is stored
// as end+24, never modulo.
type Demand struct {
	ID                 string    `json:"id"`
	Group              string    `json:"group,omitempty"`
	DistanceKm         float64   `json:"distance_km"`
	EnergyRequiredKWh  float64   `json:"energy_required_kwh"`
	WindowStartH       float64   `json:"window_start_h"`
	WindowEndH         float64   `json:"window_end_h"`
	EnergyRemainingKWh float64   `json:"energy_remaining_kwh"`
	Sessions           []Session `json:"sessions"`
}

// NewDemand builds a demand with its remaining energy set to the full need.
// A deadline at or before the arrival is moved to the next day.
func NewDemand(id string, energyKWh, start, end float64) Demand {
	if end <= start {
		end += 24
	}
	return Demand{
		ID:                 id,
		EnergyRequiredKWh:  energyKWh,
		WindowStartH:       start,
		WindowEndH:         end,
		EnergyRemainingKWh: energyKWh,
	}
}

// DeliveredKWh sums the energy of every booked session.
func (d Demand) DeliveredKWh() float64 {
	total := 0.0
	for _, s := range d.Sessions {
		total += s.EnergyKWh
	}
	return total
}

// Satisfied reports whether the remaining need is below tol.
func (d Demand) Satisfied(tol float64) bool { return d.EnergyRemainingKWh <= tol }

// Clone returns a deep copy so independent runs never share session slices.
func (d Demand) Clone() Demand {
	cp := d
	if d.Sessions != nil {
		cp.Sessions = append([]Session(nil), d.Sessions...)
	}
	return cp
}

// CloneDemands deep-copies a demand list.
func CloneDemands(in []Demand) []Demand {
	out := make([]Demand, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

// Reset restores the remaining energy to the full need and drops sessions.
func (d *Demand) Reset() {
	d.EnergyRemainingKWh = d.EnergyRequiredKWh
	d.Sessions = nil
}

// VehicleSpec is one vehicle as entered by the user. Times are clock hours
// on a 0-24 axis.
type VehicleSpec struct {
	ID                  string     `json:"id" yaml:"id"`
	DistanceKm          float64    `json:"distance_km" yaml:"distance_km"`
	ConsumptionKWhPerKm float64    `json:"consumption_kwh_per_km" yaml:"consumption_kwh_per_km"`
	EnergyKWh           float64    `json:"energy_kwh" yaml:"energy_kwh"`
	BatteryKWh          float64    `json:"battery_kwh" yaml:"battery_kwh"`
	Arrival             ClockHours `json:"arrival" yaml:"arrival"`
	Departure           ClockHours `json:"departure" yaml:"departure"`
}

// Energy returns the need in kWh: the explicit value when set, otherwise
// distance times consumption, capped at the battery size when known.
func (v VehicleSpec) Energy() float64 {
	e := v.EnergyKWh
	if e <= 0 {
		e = v.DistanceKm * v.ConsumptionKWhPerKm
	}
	if v.BatteryKWh > 0 {
		e = math.Min(e, v.BatteryKWh)
	}
	return e
}

// Validate rejects values that cannot describe a vehicle.
func (v VehicleSpec) Validate() error {
	if v.DistanceKm < 0 || v.ConsumptionKWhPerKm < 0 || v.EnergyKWh < 0 || v.BatteryKWh < 0 {
		return fmt.Errorf("vehicle %s: negative distance, consumption or energy", v.ID)
	}
	if v.Arrival < 0 || v.Arrival > 24 || v.Departure < 0 || v.Departure > 24 {
		return fmt.Errorf("vehicle %s: clock hours must be within [0,24]", v.ID)
	}
	return nil
}

func (v VehicleSpec) demand(id, group string) Demand {
	d := NewDemand(id, v.Energy(), float64(v.Arrival), float64(v.Departure))
	d.Group = group
	d.DistanceKm = v.DistanceKm
	return d
}

// GroupSpec describes Quantity identical vehicles.
type GroupSpec struct {
	Name        string `json:"name" yaml:"name"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	VehicleSpec `yaml:",inline"`
}

// Fleet is the raw input of a planning run.
type Fleet struct {
	Vehicles []VehicleSpec `json:"vehicles" yaml:"vehicles"`
	Groups   []GroupSpec   `json:"groups" yaml:"groups"`
}

// Empty reports whether the fleet has no vehicle at all.
func (f Fleet) Empty() bool {
	if len(f.Vehicles) > 0 {
		return false
	}
	for _, g := range f.Groups {
		if g.Quantity > 0 {
			return false
		}
	}
	return true
}

// ExpandFleet flattens single vehicles and groups into one Demand per
// vehicle instance. Vehicles without an id are named V1, V2... in input
// order and group members are named {group}_1..{group}_N.
func ExpandFleet(f Fleet) ([]Demand, error) {
	var out []Demand
	seen := map[string]bool{}
	add := func(d Demand) error {
		if seen[d.ID] {
			return fmt.Errorf("duplicate vehicle id %q", d.ID)
		}
		seen[d.ID] = true
		out = append(out, d)
		return nil
	}
	for i, v := range f.Vehicles {
		if v.ID == "" {
			v.ID = fmt.Sprintf("V%d", i+1)
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if err := add(v.demand(v.ID, "")); err != nil {
			return nil, err
		}
	}
	for gi, g := range f.Groups {
		if g.Quantity < 0 {
			return nil, fmt.Errorf("%w: group %q quantity %d", ErrInvalidQuantity, g.Name, g.Quantity)
		}
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("G%d", gi+1)
		}
		g.ID = name
		if err := g.Validate(); err != nil {
			return nil, err
		}
		for n := 1; n <= g.Quantity; n++ {
			if err := add(g.demand(fmt.Sprintf("%s_%d", name, n), name)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// TotalEnergy sums the required energy of all demands.
func TotalEnergy(ds []Demand) float64 {
	total := 0.0
	for _, d := range ds {
		total += d.EnergyRequiredKWh
	}
	return total
}
