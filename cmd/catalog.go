package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/pkg/export"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the station types available to the optimizer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			cat := svc.Catalog()
			if format == formatJSON {
				return export.WriteJSON(cmd.OutOrStdout(), cat)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tCLASS\tkW\tHARDWARE\tINSTALL\tMAINTENANCE/YR")
			for _, t := range cat {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0f\n", t.Name, t.Class, t.PowerKW, t.HardwareCost, t.InstallCost, t.MaintenanceYear)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table or json")
	return cmd
}
