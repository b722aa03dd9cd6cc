package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	vmmetrics "github.com/arloliu/cqlboot/contrib/metrics/vm"
	"github.com/arloliu/cqlboot/internal/health"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect, then hold the session until interrupted",
		Long: `Connects to the cluster, provisioning it when needed, and keeps the
session open until SIGINT or SIGTERM. Health, readiness and metrics are
served on --listen. Exits non-zero when the cluster cannot be reached or
provisioned.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.run(ctx)
		},
	}
}

func (a *app) run(ctx context.Context) error {
	collector := vmmetrics.New(vmmetrics.WithPrefix("cqlboot"))

	manager, err := a.newManager(collector)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if listen := a.settings.HTTP.Listen; listen != "" {
		server := health.New(listen, manager, collector.Handler, a.logger)
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	g.Go(func() error {
		if err := manager.Connect(ctx); err != nil {
			a.logger.Error("giving up on the cluster", "error", err)
			return err
		}

		<-ctx.Done()

		return manager.Shutdown(context.Background())
	})

	return g.Wait()
}
