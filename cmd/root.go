// Package cmd implements the fleetcharge command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/app"
	"github.com/kilianp07/fleetcharge/config"
	"github.com/kilianp07/fleetcharge/infra/logger"
)

type rootOptions struct {
	cfgPath string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "fleetcharge",
		Short:         "Size and schedule the charging stations of an EV fleet depot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json); defaults plus FC_ environment when empty")
	root.AddCommand(
		newOptimizeCmd(opts),
		newSimulateCmd(opts),
		newCatalogCmd(opts),
		newRunsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

func (o *rootOptions) service(extra ...app.Option) (*app.Service, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg, extra...)
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
