package kpi

import "fmt"

// Costs holds the tariffs and conversion factors used to turn a schedule
// into money and emissions. Energy prices are per kWh, fuel per litre.
type Costs struct {
	GridKWh    float64 `json:"grid_kwh" yaml:"grid_kwh"`
	SolarKWh   float64 `json:"solar_kwh" yaml:"solar_kwh"`
	SolarShare float64 `json:"solar_share" yaml:"solar_share"`
	PublicKWh  float64 `json:"public_kwh" yaml:"public_kwh"`

	FuelPerLitre float64 `json:"fuel_per_litre" yaml:"fuel_per_litre"`
	KmPerLitre   float64 `json:"km_per_litre" yaml:"km_per_litre"`

	StaffHourly             float64 `json:"staff_hourly" yaml:"staff_hourly"`
	ExternalKWhPerStaffHour float64 `json:"external_kwh_per_staff_hour" yaml:"external_kwh_per_staff_hour"`
	PenaltyMinPerKWh        float64 `json:"penalty_min_per_kwh" yaml:"penalty_min_per_kwh"`

	DaysPerYear   float64 `json:"days_per_year" yaml:"days_per_year"`
	CO2KgPerLitre float64 `json:"co2_kg_per_litre" yaml:"co2_kg_per_litre"`
	TreesPerTonne float64 `json:"trees_per_tonne" yaml:"trees_per_tonne"`
}

// DefaultCosts returns the reference tariffs.
func DefaultCosts() Costs {
	var c Costs
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields. SolarShare has no default: zero means the
// site buys all its energy from the grid.
func (c *Costs) SetDefaults() {
	if c.GridKWh == 0 {
		c.GridKWh = 0.22
	}
	if c.SolarKWh == 0 {
		c.SolarKWh = 0.08
	}
	if c.PublicKWh == 0 {
		c.PublicKWh = 0.65
	}
	if c.FuelPerLitre == 0 {
		c.FuelPerLitre = 1.75
	}
	if c.KmPerLitre == 0 {
		c.KmPerLitre = 15
	}
	if c.StaffHourly == 0 {
		c.StaffHourly = 20
	}
	if c.ExternalKWhPerStaffHour == 0 {
		c.ExternalKWhPerStaffHour = 30
	}
	if c.PenaltyMinPerKWh == 0 {
		c.PenaltyMinPerKWh = 15
	}
	if c.DaysPerYear == 0 {
		c.DaysPerYear = 365
	}
	if c.CO2KgPerLitre == 0 {
		c.CO2KgPerLitre = 2.65
	}
	if c.TreesPerTonne == 0 {
		c.TreesPerTonne = 50
	}
}

// Validate checks the cost parameters.
func (c Costs) Validate() error {
	if c.SolarShare < 0 || c.SolarShare > 1 {
		return fmt.Errorf("solar_share must be within [0,1]")
	}
	for name, v := range map[string]float64{
		"grid_kwh": c.GridKWh, "solar_kwh": c.SolarKWh, "public_kwh": c.PublicKWh,
		"fuel_per_litre": c.FuelPerLitre, "staff_hourly": c.StaffHourly,
		"penalty_min_per_kwh": c.PenaltyMinPerKWh,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.KmPerLitre <= 0 || c.ExternalKWhPerStaffHour <= 0 || c.DaysPerYear <= 0 {
		return fmt.Errorf("km_per_litre, external_kwh_per_staff_hour and days_per_year must be positive")
	}
	return nil
}

// InternalKWh is the site energy price blended between grid and solar.
func (c Costs) InternalKWh() float64 {
	return c.GridKWh*(1-c.SolarShare) + c.SolarKWh*c.SolarShare
}
