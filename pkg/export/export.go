// Package export renders optimizer results as JSON, CSV or aligned text.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/scheduler"
	"github.com/kilianp07/fleetcharge/core/search"
)

// RankingRow is the flat view of one ranked configuration.
type RankingRow struct {
	Rank               int      `json:"rank"`
	Configuration      string   `json:"configuration"`
	Stations           int      `json:"stations"`
	CapitalCost        float64  `json:"capital_cost"`
	Coverage           float64  `json:"coverage"`
	StressCoverage     *float64 `json:"stress_coverage,omitempty"`
	Efficiency         float64  `json:"efficiency"`
	TimeUtilization    float64  `json:"time_utilization"`
	EnergyUtilization  float64  `json:"energy_utilization"`
	PeakKW             float64  `json:"peak_kw"`
	CeilingKW          float64  `json:"ceiling_kw"`
	PeakStatus         string   `json:"peak_status"`
	ExternalCostAnnual float64  `json:"external_cost_annual"`
	PaybackYears       float64  `json:"payback_years"`
}

// NewRanking flattens evaluations in their ranked order.
func NewRanking(evals []search.Evaluation) []RankingRow {
	rows := make([]RankingRow, 0, len(evals))
	for _, e := range evals {
		row := RankingRow{
			Rank:               e.Rank,
			Configuration:      e.Label,
			Stations:           e.KPI.Stations,
			CapitalCost:        e.KPI.CapitalCost,
			Coverage:           e.KPI.Coverage,
			Efficiency:         e.KPI.Efficiency,
			TimeUtilization:    e.KPI.TimeUtilization,
			EnergyUtilization:  e.KPI.EnergyUtilization,
			PeakKW:             e.KPI.PeakKW,
			CeilingKW:          e.KPI.CeilingKW,
			PeakStatus:         string(e.KPI.PeakStatus),
			ExternalCostAnnual: e.KPI.ExternalCostAnnual,
			PaybackYears:       e.KPI.PaybackYears,
		}
		if e.Stress != nil {
			c := e.Stress.Coverage
			row.StressCoverage = &c
		}
		rows = append(rows, row)
	}
	return rows
}

// SessionRow is one booked session of a plan.
type SessionRow struct {
	StationID string  `json:"station_id"`
	DemandID  string  `json:"demand_id"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	StartH    float64 `json:"start_h"`
	EndH      float64 `json:"end_h"`
	EnergyKWh float64 `json:"energy_kwh"`
	PeakKW    float64 `json:"peak_kw"`
}

// NewSessionRows lists the sessions of res in station order. Bookings are
// already sorted by start within a station.
func NewSessionRows(res *scheduler.Result) []SessionRow {
	if res == nil {
		return nil
	}
	var rows []SessionRow
	for _, st := range res.Stations {
		for _, s := range st.Bookings {
			rows = append(rows, SessionRow{
				StationID: s.StationID,
				DemandID:  s.DemandID,
				Start:     Clock(s.StartH),
				End:       Clock(s.EndH),
				StartH:    s.StartH,
				EndH:      s.EndH,
				EnergyKWh: s.EnergyKWh,
				PeakKW:    s.PeakKW,
			})
		}
	}
	return rows
}

// Clock renders an axis hour as "HH:MM", suffixed "+1" on the next day.
func Clock(h float64) string {
	day := int(math.Floor(h / 24))
	c := model.ClockHours(h - float64(day)*24).String()
	if c == "24:00" {
		c = "00:00"
		day++
	}
	if day > 0 {
		return fmt.Sprintf("%s+%d", c, day)
	}
	return c
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteRankingCSV writes the ranking with a header row.
func WriteRankingCSV(w io.Writer, rows []RankingRow) error {
	cw := csv.NewWriter(w)
	header := []string{"rank", "configuration", "stations", "capital_cost", "coverage", "stress_coverage",
		"efficiency", "time_utilization", "energy_utilization", "peak_kw", "ceiling_kw", "peak_status",
		"external_cost_annual", "payback_years"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		stress := ""
		if r.StressCoverage != nil {
			stress = ff(*r.StressCoverage)
		}
		rec := []string{
			strconv.Itoa(r.Rank), r.Configuration, strconv.Itoa(r.Stations), ff(r.CapitalCost), ff(r.Coverage), stress,
			ff(r.Efficiency), ff(r.TimeUtilization), ff(r.EnergyUtilization), ff(r.PeakKW), ff(r.CeilingKW), r.PeakStatus,
			ff(r.ExternalCostAnnual), ff(r.PaybackYears),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSessionsCSV writes the booked sessions with a header row.
func WriteSessionsCSV(w io.Writer, rows []SessionRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station_id", "demand_id", "start", "end", "energy_kwh", "peak_kw"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.StationID, r.DemandID, r.Start, r.End, ff(r.EnergyKWh), ff(r.PeakKW)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRankingTable writes an aligned text table for terminals.
func WriteRankingTable(w io.Writer, rows []RankingRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCONFIGURATION\tCAPEX\tCOVERAGE\tSTRESS\tEFFICIENCY\tPEAK/CEILING kW\tPAYBACK")
	for _, r := range rows {
		stress := "-"
		if r.StressCoverage != nil {
			stress = fmt.Sprintf("%.1f%%", *r.StressCoverage*100)
		}
		payback := "never"
		if r.PaybackYears > 0 {
			payback = fmt.Sprintf("%.1f y", r.PaybackYears)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.0f\t%.1f%%\t%s\t%.3f\t%.1f/%.1f\t%s\n",
			r.Rank, r.Configuration, r.CapitalCost, r.Coverage*100, stress, r.Efficiency, r.PeakKW, r.CeilingKW, payback)
	}
	return tw.Flush()
}

// WriteSessionsTable writes the booked sessions as an aligned text table.
func WriteSessionsTable(w io.Writer, rows []SessionRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATION\tVEHICLE\tSTART\tEND\tkWh\tPEAK kW")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.1f\n", r.StationID, r.DemandID, r.Start, r.End, r.EnergyKWh, r.PeakKW)
	}
	return tw.Flush()
}
