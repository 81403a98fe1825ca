package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// StationClass separates slow AC points from DC fast chargers. The class
// drives the default session limit of a station.
type StationClass string

const (
	ClassAC StationClass = "AC"
	ClassDC StationClass = "DC"
)

// ErrUnknownStationType is returned when a configuration references a type
// missing from the catalog.
var ErrUnknownStationType = errors.New("unknown station type")

// StationType describes one purchasable charging point model.
type StationType struct {
	Name            string       `json:"name" yaml:"name"`
	Class           StationClass `json:"class" yaml:"class"`
	PowerKW         float64      `json:"power_kw" yaml:"power_kw"`
	HardwareCost    float64      `json:"hardware_cost" yaml:"hardware_cost"`
	InstallCost     float64      `json:"install_cost" yaml:"install_cost"`
	MaintenanceYear float64      `json:"maintenance_year" yaml:"maintenance_year"`
	// MaxSessions overrides the class default when positive.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions"`
}

// UnitCost returns the capital cost of one installed point.
func (t StationType) UnitCost() float64 { return t.HardwareCost + t.InstallCost }

// Validate checks that the type can be materialized.
func (t StationType) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("station type name is required")
	}
	if t.Class != ClassAC && t.Class != ClassDC {
		return fmt.Errorf("station type %s: unknown class %q", t.Name, t.Class)
	}
	if t.PowerKW <= 0 {
		return fmt.Errorf("station type %s: power must be positive", t.Name)
	}
	if t.HardwareCost < 0 || t.InstallCost < 0 || t.MaintenanceYear < 0 {
		return fmt.Errorf("station type %s: costs must not be negative", t.Name)
	}
	return nil
}

// Catalog is the ordered list of station types available for a site. The
// order is significant: stations are materialized and configurations are
// enumerated following it.
type Catalog []StationType

// DefaultCatalog returns the built-in station types.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: "AC_22", Class: ClassAC, PowerKW: 11, HardwareCost: 1500, InstallCost: 1650, MaintenanceYear: 50},
		{Name: "DC_20", Class: ClassDC, PowerKW: 20, HardwareCost: 7000, InstallCost: 3000, MaintenanceYear: 150},
		{Name: "DC_30", Class: ClassDC, PowerKW: 30, HardwareCost: 8000, InstallCost: 4500, MaintenanceYear: 200},
		{Name: "DC_50", Class: ClassDC, PowerKW: 50, HardwareCost: 12000, InstallCost: 7500, MaintenanceYear: 250},
		{Name: "DC_60", Class: ClassDC, PowerKW: 60, HardwareCost: 15000, InstallCost: 9000, MaintenanceYear: 300},
		{Name: "DC_90", Class: ClassDC, PowerKW: 90, HardwareCost: 20000, InstallCost: 13500, MaintenanceYear: 400},
	}
}

// Lookup returns the type with the given name.
func (c Catalog) Lookup(name string) (StationType, bool) {
	for _, t := range c {
		if t.Name == name {
			return t, true
		}
	}
	return StationType{}, false
}

// Validate checks every entry and rejects duplicate names.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for _, t := range c {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate station type %s", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Configuration maps a station type name to the number of installed points.
type Configuration map[string]int

// ParseConfiguration reads entries of the form "AC_22=2".
func ParseConfiguration(entries []string) (Configuration, error) {
	cfg := Configuration{}
	for _, e := range entries {
		name, qty, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("invalid station entry %q, expected TYPE=COUNT", e)
		}
		var n int
		if _, err := fmt.Sscanf(qty, "%d", &n); err != nil {
			return nil, fmt.Errorf("invalid station count in %q: %w", e, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidQuantity, e)
		}
		cfg[strings.TrimSpace(name)] += n
	}
	return cfg, nil
}

// Validate ensures every referenced type exists and counts are not negative.
func (c Configuration) Validate(cat Catalog) error {
	for name, n := range c {
		if _, ok := cat.Lookup(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStationType, name)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidQuantity, name, n)
		}
	}
	return nil
}

// Stations returns the total number of points.
func (c Configuration) Stations() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}

// InstalledPowerKW sums the power of every point.
func (c Configuration) InstalledPowerKW(cat Catalog) float64 {
	return c.sum(cat, func(t StationType) float64 { return t.PowerKW })
}

// CapitalCost sums hardware and installation for every point.
func (c Configuration) CapitalCost(cat Catalog) float64 {
	return c.sum(cat, StationType.UnitCost)
}

// HardwareCost sums the purchase price of every point.
func (c Configuration) HardwareCost(cat Catalog) float64 {
	return c.sum(cat, func(t StationType) float64 { return t.HardwareCost })
}

// InstallCost sums the installation cost of every point.
func (c Configuration) InstallCost(cat Catalog) float64 {
	return c.sum(cat, func(t StationType) float64 { return t.InstallCost })
}

// MaintenanceYear sums the yearly maintenance of every point.
func (c Configuration) MaintenanceYear(cat Catalog) float64 {
	return c.sum(cat, func(t StationType) float64 { return t.MaintenanceYear })
}

func (c Configuration) sum(cat Catalog, f func(StationType) float64) float64 {
	total := 0.0
	for _, t := range cat {
		if q := c[t.Name]; q > 0 {
			total += f(t) * float64(q)
		}
	}
	return total
}

// Label renders the configuration as "2xAC_22 + 1xDC_30" in catalog order.
// Types unknown to the catalog are appended alphabetically.
func (c Configuration) Label(cat Catalog) string {
	var parts []string
	known := make(map[string]bool, len(cat))
	for _, t := range cat {
		known[t.Name] = true
		if q := c[t.Name]; q > 0 {
			parts = append(parts, fmt.Sprintf("%dx%s", q, t.Name))
		}
	}
	var rest []string
	for name, q := range c {
		if !known[name] && q > 0 {
			rest = append(rest, fmt.Sprintf("%dx%s", q, name))
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " + ")
}

// Clone returns an independent copy.
func (c Configuration) Clone() Configuration {
	cp := make(Configuration, len(c))
	for k, v := range c {
		cp[k] = v
	}
	return cp
}
