package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcharge/api/plan"
	"github.com/kilianp07/fleetcharge/infra/logger"
	"github.com/kilianp07/fleetcharge/infra/metrics"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API and Prometheus metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			log := logger.New("api")
			cfg := svc.Config()

			if addr := cfg.Metrics.PrometheusAddr; addr != "" {
				go func() {
					if err := metrics.StartPromServer(ctx, addr); err != nil {
						log.Errorf("prom server: %v", err)
					}
				}()
			}

			srv := &http.Server{Addr: cfg.API.Addr, Handler: plan.NewMux(svc), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Errorf("api shutdown: %v", err)
				}
				cancel()
			}()
			log.Infof("serving planning API on %s", cfg.API.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
