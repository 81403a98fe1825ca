package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/app"
	"github.com/kilianp07/fleetcharge/core/model"
	"github.com/kilianp07/fleetcharge/core/search"
	"github.com/kilianp07/fleetcharge/pkg/export"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

type planOptions struct {
	fleetPath string
	format    string
	publish   bool
	top       int
	day       string
	schedule  bool
}

func (p *planOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.fleetPath, "fleet", "f", "", "fleet file (yaml or json)")
	cmd.Flags().StringVar(&p.format, "format", formatTable, "output format: table, json or csv")
	cmd.Flags().BoolVar(&p.publish, "publish", false, "publish the recommended station schedules over MQTT")
	cmd.Flags().StringVar(&p.day, "day", "", "planning day for published schedules (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&p.schedule, "schedule", false, "with --format csv, write the recommended sessions instead of the ranking")
	_ = cmd.MarkFlagRequired("fleet")
}

func (p *planOptions) validate() error {
	switch p.format {
	case formatTable, formatJSON, formatCSV:
		return nil
	default:
		return fmt.Errorf("unknown format %q", p.format)
	}
}

func (p *planOptions) planningDay() (time.Time, error) {
	if p.day == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02", p.day, time.Local)
}

func newOptimizeCmd(root *rootOptions) *cobra.Command {
	opts := &planOptions{}
	var types []string
	var budget, grid float64
	var rankBy string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search the station mix that best covers the fleet demand",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			fleet, err := model.LoadFleet(opts.fleetPath)
			if err != nil {
				return err
			}
			svc, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			overrides := search.Config{Types: types, Budget: budget, GridPowerKW: grid, RankBy: rankBy}
			rep, err := svc.Optimize(cmd.Context(), fleet, overrides)
			if err != nil {
				return err
			}
			return finish(cmd, svc, rep, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&opts.top, "top", 10, "number of ranked configurations to print (0 for all)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "station types to consider (repeatable)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "capital budget override")
	cmd.Flags().Float64Var(&grid, "grid-kw", 0, "grid connection power override in kW")
	cmd.Flags().StringVar(&rankBy, "rank-by", "", "ranking: coverage or efficiency")
	return cmd
}

func finish(cmd *cobra.Command, svc *app.Service, rep *app.Report, opts *planOptions) error {
	if err := render(cmd.OutOrStdout(), rep, opts); err != nil {
		return err
	}
	if !opts.publish {
		return nil
	}
	day, err := opts.planningDay()
	if err != nil {
		return fmt.Errorf("invalid --day: %w", err)
	}
	return svc.Publish(cmd.Context(), rep, day)
}

func render(w io.Writer, rep *app.Report, opts *planOptions) error {
	rows := rep.Ranking
	if opts.top > 0 && opts.top < len(rows) {
		rows = rows[:opts.top]
	}
	switch opts.format {
	case formatJSON:
		out := *rep
		out.Ranking = rows
		return export.WriteJSON(w, out)
	case formatCSV:
		if opts.schedule {
			if rep.Recommendation == nil {
				return export.WriteSessionsCSV(w, nil)
			}
			return export.WriteSessionsCSV(w, rep.Recommendation.Sessions)
		}
		return export.WriteRankingCSV(w, rows)
	}
	fmt.Fprintf(w, "run %s: %d vehicles, %.1f kWh required, %d configurations evaluated\n\n",
		rep.RunID, rep.Vehicles, rep.RequiredKWh, rep.Candidates)
	if rep.Recommendation == nil {
		fmt.Fprintln(w, "no feasible configuration")
		return nil
	}
	if err := export.WriteRankingTable(w, rows); err != nil {
		return err
	}
	p := rep.Recommendation
	fmt.Fprintf(w, "\nrecommended: %s  coverage %.1f%%  peak %.1f/%.1f kW (%s)\n\n",
		p.Configuration, p.KPI.Coverage*100, p.KPI.PeakKW, p.KPI.CeilingKW, p.KPI.PeakStatus)
	if err := export.WriteSessionsTable(w, p.Sessions); err != nil {
		return err
	}
	if len(p.Unserved) > 0 {
		fmt.Fprintf(w, "\nnot fully charged: %v\n", p.Unserved)
	}
	return nil
}
