package model

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandFleetGroupsAndWrap(t *testing.T) {
	f := Fleet{
		Vehicles: []VehicleSpec{
			{DistanceKm: 100, ConsumptionKWhPerKm: 0.2, Arrival: 18, Departure: 6},
			{ID: "van", EnergyKWh: 50, BatteryKWh: 40, Arrival: 8, Departure: 17},
		},
		Groups: []GroupSpec{{Name: "bus", Quantity: 3, VehicleSpec: VehicleSpec{EnergyKWh: 30, Arrival: 19, Departure: 19}}},
	}
	ds, err := ExpandFleet(f)
	require.NoError(t, err)
	require.Len(t, ds, 5)

	assert.Equal(t, "V1", ds[0].ID)
	assert.InDelta(t, 20.0, ds[0].EnergyRequiredKWh, 1e-9)
	assert.Equal(t, 18.0, ds[0].WindowStartH)
	assert.Equal(t, 30.0, ds[0].WindowEndH)
	assert.Equal(t, ds[0].EnergyRequiredKWh, ds[0].EnergyRemainingKWh)

	assert.Equal(t, 40.0, ds[1].EnergyRequiredKWh, "battery caps the need")
	assert.Equal(t, 17.0, ds[1].WindowEndH)

	for i, d := range ds[2:] {
		assert.Equal(t, "bus", d.Group)
		assert.Equal(t, []string{"bus_1", "bus_2", "bus_3"}[i], d.ID)
		assert.Equal(t, 43.0, d.WindowEndH, "equal times wrap to next day")
	}
}

func TestExpandFleetErrors(t *testing.T) {
	_, err := ExpandFleet(Fleet{Groups: []GroupSpec{{Name: "g", Quantity: -1}}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	_, err = ExpandFleet(Fleet{Vehicles: []VehicleSpec{{ID: "a"}, {ID: "a"}}})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
	_, err = ExpandFleet(Fleet{Vehicles: []VehicleSpec{{ID: "a", Arrival: 25}}})
	if err == nil {
		t.Fatalf("expected clock range error")
	}
}

func TestExpandFleetZeroEnergyAccepted(t *testing.T) {
	ds, err := ExpandFleet(Fleet{Vehicles: []VehicleSpec{{ID: "idle", Arrival: 8, Departure: 9}}})
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Zero(t, ds[0].EnergyRequiredKWh)
}

func TestMaterializeOrderAndLimits(t *testing.T) {
	cat := DefaultCatalog()
	cat[2].MaxSessions = 4 // DC_30
	st, err := Materialize(Configuration{"DC_30": 1, "AC_22": 2}, cat, 3, 8)
	require.NoError(t, err)
	require.Len(t, st, 3)
	assert.Equal(t, "AC_22_1", st[0].ID)
	assert.Equal(t, "AC_22_2", st[1].ID)
	assert.Equal(t, "DC_30_1", st[2].ID)
	assert.Equal(t, 3, st[0].MaxSessions)
	assert.Equal(t, 4, st[2].MaxSessions)
	assert.Equal(t, 11.0, st[0].PowerKW)
	assert.Empty(t, st[0].Bookings)

	_, err = Materialize(Configuration{"AC_7": 1}, cat, 3, 8)
	if !errors.Is(err, ErrUnknownStationType) {
		t.Fatalf("expected ErrUnknownStationType, got %v", err)
	}
}

func TestStationBookKeepsOrder(t *testing.T) {
	s := &Station{ID: "s", MaxSessions: 3}
	s.Book(Session{StartH: 20, EndH: 21})
	s.Book(Session{StartH: 10, EndH: 11})
	s.Book(Session{StartH: 15, EndH: 16})
	assert.Equal(t, []float64{10, 15, 20}, []float64{s.Bookings[0].StartH, s.Bookings[1].StartH, s.Bookings[2].StartH})
	assert.False(t, s.HasCapacity())
	assert.InDelta(t, 3.0, s.BusyHours(), 1e-9)
}

func TestConfigurationAggregates(t *testing.T) {
	cat := DefaultCatalog()
	cfg := Configuration{"DC_30": 1, "AC_22": 2}
	assert.Equal(t, 52.0, cfg.InstalledPowerKW(cat))
	assert.Equal(t, 2*3150.0+12500, cfg.CapitalCost(cat))
	assert.Equal(t, 300.0, cfg.MaintenanceYear(cat))
	assert.Equal(t, "2xAC_22 + 1xDC_30", cfg.Label(cat))
	assert.Equal(t, "empty", Configuration{}.Label(cat))
	assert.Equal(t, 3, cfg.Stations())
}

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration([]string{"AC_22=2", "DC_30=1", "AC_22=1"})
	require.NoError(t, err)
	assert.Equal(t, Configuration{"AC_22": 3, "DC_30": 1}, cfg)

	_, err = ParseConfiguration([]string{"AC_22"})
	assert.Error(t, err)
	_, err = ParseConfiguration([]string{"AC_22=-1"})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCatalogValidate(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())
	bad := append(DefaultCatalog(), DefaultCatalog()[0])
	assert.Error(t, bad.Validate())
	assert.Error(t, Catalog{{Name: "X", Class: "HV", PowerKW: 1}}.Validate())
}

func TestParseClock(t *testing.T) {
	cases := map[string]float64{"18:30": 18.5, "06:00": 6, "7.25": 7.25, "24:00": 24}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if math.Abs(float64(got)-want) > 1e-9 {
			t.Fatalf("%s: expected %v got %v", in, want, got)
		}
	}
	for _, in := range []string{"25:00", "aa:10", "10:75", "x"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}
	assert.Equal(t, "18:30", ClockHours(18.5).String())
}

func TestDecodeFleetYAML(t *testing.T) {
	data := `
vehicles:
  - id: v1
    distance_km: 120
    consumption_kwh_per_km: 0.18
    arrival: "18:00"
    departure: "07:30"
groups:
  - name: vans
    quantity: 2
    energy_kwh: 25
    arrival: 19
    departure: 6
`
	fl, err := DecodeFleet(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	require.Len(t, fl.Vehicles, 1)
	assert.Equal(t, ClockHours(7.5), fl.Vehicles[0].Departure)
	require.Len(t, fl.Groups, 1)
	assert.Equal(t, 2, fl.Groups[0].Quantity)
	assert.Equal(t, 25.0, fl.Groups[0].EnergyKWh)
	assert.Equal(t, ClockHours(19), fl.Groups[0].Arrival)
}

func TestLoadFleetJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.json")
	data := `{"vehicles":[{"id":"a","energy_kwh":12,"arrival":"20:00","departure":6}],"groups":[{"name":"g","quantity":1,"energy_kwh":5,"arrival":1,"departure":2}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fl, err := LoadFleet(path)
	require.NoError(t, err)
	assert.Equal(t, ClockHours(20), fl.Vehicles[0].Arrival)
	assert.Equal(t, ClockHours(6), fl.Vehicles[0].Departure)
	assert.Equal(t, 5.0, fl.Groups[0].EnergyKWh)

	if _, err := LoadFleet(filepath.Join(dir, "fleet.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDemandCloneIsDeep(t *testing.T) {
	d := NewDemand("a", 10, 8, 12)
	d.Sessions = []Session{{StationID: "s", EnergyKWh: 2}}
	cp := d.Clone()
	cp.Sessions[0].EnergyKWh = 5
	assert.Equal(t, 2.0, d.Sessions[0].EnergyKWh)
	d.Reset()
	assert.Nil(t, d.Sessions)
	assert.Equal(t, 10.0, d.EnergyRemainingKWh)
}
