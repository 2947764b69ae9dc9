package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/younsl/spoton/pkg/server"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var noJanitor bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the provisioning endpoint and run cleanup on a timer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateStarter(); err != nil {
				return err
			}
			if err := a.cfg.ValidateJanitor(); err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := a.ec2Client(ctx)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           server.NewRouter(a.newStarter(client)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			grp, gctx := errgroup.WithContext(ctx)

			grp.Go(func() error {
				log.WithField("addr", a.cfg.Listen).Info("starting spoton server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			grp.Go(func() error {
				<-gctx.Done()
				log.Info("shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.WithError(err).Error("failed to shutdown http server")
					return err
				}
				log.Info("http server shutdown complete")
				return nil
			})

			if !noJanitor && a.cfg.CleanupInterval > 0 {
				j := a.newJanitor(client)
				grp.Go(func() error {
					return j.RunEvery(gctx, a.cfg.CleanupInterval)
				})
			}

			return grp.Wait()
		},
	}

	cmd.Flags().BoolVar(&noJanitor, "no-janitor", false, "Do not run cleanup in this process")
	return cmd
}
