package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/core/runlog"
	"github.com/kilianp07/fleetcharge/pkg/export"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var q runlog.Query
	var format string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the run log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			recs, err := svc.History(cmd.Context(), q)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return export.WriteJSON(cmd.OutOrStdout(), recs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRUN\tMODE\tVEHICLES\tBEST\tCOVERAGE\tCAPEX")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.1f%%\t%.0f\n",
					r.Timestamp.Format("2006-01-02 15:04"), r.RunID, r.Mode, r.Vehicles, r.Best, r.Coverage*100, r.CapitalCost)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.RunID, "run", "", "filter by run id")
	cmd.Flags().StringVar(&q.Mode, "mode", "", "filter by mode (optimize or simulate)")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table or json")
	return cmd
}
