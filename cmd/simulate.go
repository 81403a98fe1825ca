package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/core/model"
)

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &planOptions{}
	var stations []string
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Schedule the fleet on a given station mix",
		Example: `  fleetcharge simulate -f fleet.yaml --station AC_22=2 --station DC_30=1`,
		RunE:    func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg, err := model.ParseConfiguration(stations)
			if err != nil {
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
			rep, err := svc.Simulate(cmd.Context(), fleet, cfg)
			if err != nil {
				return err
			}
			return finish(cmd, svc, rep, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringArrayVarP(&stations, "station", "s", nil, "station count as TYPE=N (repeatable)")
	_ = cmd.MarkFlagRequired("station")
	return cmd
}
