package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	openrouterx "github.com/tanpawarit/logistics-control-tower/pkg/openrouter"
	"github.com/tanpawarit/logistics-control-tower/transport/httpapi"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	di := newContainer(ctx)
	defer func() {
		if err := di.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	srv, err := do.Invoke[*httpapi.Server](di)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		// A missing model only degrades readiness; the server keeps running.
		probe, err := do.Invoke[*openrouterx.Probe](di)
		if err != nil {
			log.Warn().Err(err).Msg("openrouter probe unavailable")
			return nil
		}
		if err := probe.Check(gctx); err != nil {
			log.Warn().Err(err).Msg("openrouter model check failed")
			return nil
		}
		log.Info().Msg("openrouter models available")
		return nil
	})

	log.Info().Str("version", Version).Msg("control tower started")
	return g.Wait()
}
