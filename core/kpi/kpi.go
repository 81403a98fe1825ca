package kpi

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
)

// PeakStatus classifies the observed peak against the ceiling.
type PeakStatus string

const (
	PeakSafe    PeakStatus = "safe"
	PeakAtLimit PeakStatus = "at_limit"
)

// safeMargin is the share of the ceiling under which the peak is safe.
const safeMargin = 0.95

// KPI summarises a completed schedule. Money values suffixed Annual are
// per year, the others are one-off or per planning day.
type KPI struct {
	RequiredKWh    float64 `json:"required_kwh"`
	InternalKWh    float64 `json:"internal_kwh"`
	ExternalKWh    float64 `json:"external_kwh"`
	Coverage       float64 `json:"coverage"`
	Vehicles       int     `json:"vehicles"`
	VehiclesServed int     `json:"vehicles_served"`
	Stations       int     `json:"stations"`
	Sessions       int     `json:"sessions"`

	HardwareCost    float64 `json:"hardware_cost"`
	InstallCost     float64 `json:"install_cost"`
	CapitalCost     float64 `json:"capital_cost"`
	MaintenanceYear float64 `json:"maintenance_year"`

	// TimeUtilization is the mean share of a 24 h day each station is busy.
	// Sessions may spill into the next day, so each station is capped at 1.
	TimeUtilization float64 `json:"time_utilization"`
	// EnergyUtilization is delivered energy over 24 h of rated output, capped at 1.
	EnergyUtilization float64 `json:"energy_utilization"`
	Efficiency        float64 `json:"efficiency"`
	// UtilizationSpread is the standard deviation of per-station time utilization.
	UtilizationSpread float64 `json:"utilization_spread"`

	PeakKW     float64    `json:"peak_kw"`
	CeilingKW  float64    `json:"ceiling_kw"`
	PeakStatus PeakStatus `json:"peak_status"`

	InternalCostDaily     float64 `json:"internal_cost_daily"`
	ExternalCostDaily     float64 `json:"external_cost_daily"`
	ExternalCostAnnual    float64 `json:"external_cost_annual"`
	ExternalPenaltyAnnual float64 `json:"external_penalty_annual"`
	SavingsVsPublicAnnual float64 `json:"savings_vs_public_annual"`
	LostTimeHoursAnnual   float64 `json:"lost_time_hours_annual"`
	StaffCostAnnual       float64 `json:"staff_cost_annual"`
	FuelCostAnnual        float64 `json:"fuel_cost_annual"`
	EVCostAnnual          float64 `json:"ev_cost_annual"`
	DeltaFossilAnnual     float64 `json:"delta_fossil_annual"`
	// PaybackYears is zero when the site never pays back against public charging.
	PaybackYears float64 `json:"payback_years"`

	CO2TonnesAnnual float64 `json:"co2_tonnes_annual"`
	Trees           int     `json:"trees"`
}

// Compute derives the KPI of res. It does not modify res. alpha weights
// time utilization against energy utilization in Efficiency.
func Compute(res *scheduler.Result, cat model.Catalog, c Costs, alpha float64) KPI {
	var k KPI
	if res == nil {
		return k
	}
	cfg := res.Configuration

	k.Vehicles = len(res.Demands)
	var km float64
	for _, d := range res.Demands {
		k.RequiredKWh += d.EnergyRequiredKWh
		km += d.DistanceKm
		if d.EnergyRemainingKWh < d.EnergyRequiredKWh {
			k.VehiclesServed++
		}
	}
	k.InternalKWh = res.DeliveredKWh()
	k.ExternalKWh = max(0, k.RequiredKWh-k.InternalKWh)
	if k.RequiredKWh > 0 {
		k.Coverage = k.InternalKWh / k.RequiredKWh
	}

	k.Stations = len(res.Stations)
	k.Sessions = res.SessionCount()
	k.HardwareCost = cfg.HardwareCost(cat)
	k.InstallCost = cfg.InstallCost(cat)
	k.CapitalCost = k.HardwareCost + k.InstallCost
	k.MaintenanceYear = cfg.MaintenanceYear(cat)

	if k.Stations > 0 {
		busy := make([]float64, k.Stations)
		var capacity float64
		for i, st := range res.Stations {
			busy[i] = math.Min(1, st.BusyHours()/24)
			capacity += st.PowerKW * 24
		}
		k.TimeUtilization = stat.Mean(busy, nil)
		if len(busy) > 1 {
			k.UtilizationSpread = stat.StdDev(busy, nil)
		}
		if capacity > 0 {
			k.EnergyUtilization = math.Min(1, k.InternalKWh/capacity)
		}
	}
	k.Efficiency = alpha*k.TimeUtilization + (1-alpha)*k.EnergyUtilization

	k.CeilingKW = res.CeilingKW
	if res.Timeline != nil && len(res.Timeline.Samples) > 0 {
		k.PeakKW = floats.Max(res.Timeline.Samples)
	}
	k.PeakStatus = PeakSafe
	if k.CeilingKW > 0 && k.PeakKW >= safeMargin*k.CeilingKW {
		k.PeakStatus = PeakAtLimit
	}

	days := c.DaysPerYear
	internalPrice := c.InternalKWh()
	k.InternalCostDaily = k.InternalKWh * internalPrice
	k.ExternalCostDaily = k.ExternalKWh * c.PublicKWh
	k.ExternalCostAnnual = k.ExternalCostDaily * days
	k.ExternalPenaltyAnnual = k.ExternalKWh * (c.PublicKWh - internalPrice) * days
	k.SavingsVsPublicAnnual = k.InternalKWh * (c.PublicKWh - internalPrice) * days
	k.LostTimeHoursAnnual = k.ExternalKWh * c.PenaltyMinPerKWh / 60 * days
	if c.ExternalKWhPerStaffHour > 0 {
		k.StaffCostAnnual = k.ExternalKWh / c.ExternalKWhPerStaffHour * c.StaffHourly * days
	}
	if c.KmPerLitre > 0 {
		litres := km / c.KmPerLitre * days
		k.FuelCostAnnual = litres * c.FuelPerLitre
		k.CO2TonnesAnnual = litres * c.CO2KgPerLitre / 1000
		k.Trees = int(k.CO2TonnesAnnual * c.TreesPerTonne)
	}
	k.EVCostAnnual = (k.InternalCostDaily+k.ExternalCostDaily)*days + k.StaffCostAnnual + k.MaintenanceYear
	k.DeltaFossilAnnual = k.FuelCostAnnual - k.EVCostAnnual
	if k.SavingsVsPublicAnnual > 0 {
		k.PaybackYears = k.CapitalCost / k.SavingsVsPublicAnnual
	}
	return k
}
