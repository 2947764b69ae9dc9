package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/younsl/spoton/pkg/formatter"
)

func newJanitorCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Snapshot and delete unused volumes, prune snapshots, terminate zombie instances",
		Long: `janitor runs the three cleanup passes once: unattached volumes are
snapshotted and deleted, every snapshot but the newest is deleted, and
running instances older than --zombie-age are terminated.

With --interval it keeps running and repeats the passes on every tick.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateJanitor(); err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := a.ec2Client(ctx)
			if err != nil {
				return err
			}
			j := a.newJanitor(client)

			if interval > 0 {
				return j.RunEvery(ctx, interval)
			}

			start := time.Now()
			report, err := j.Run(ctx)
			formatter.PrintCleanupReport(os.Stdout, report)
			formatter.PrintScanTime(os.Stdout, start, time.Since(start))
			if err != nil {
				log.WithError(err).Error("cleanup finished with errors")
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Repeat cleanup at this interval until interrupted (0 runs once)")
	return cmd
}
