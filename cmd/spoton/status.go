package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	awsclient "github.com/younsl/spoton/pkg/aws"
	"github.com/younsl/spoton/pkg/formatter"
	"github.com/younsl/spoton/pkg/inventory"
	"github.com/younsl/spoton/pkg/pricing"
)

// startSpinner creates and starts a spinner with the given message
func startSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	s.Start()
	return s
}

func newStatusCmd(a *app) *cobra.Command {
	var showIAM bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show managed instances, volumes and snapshots with estimated cost",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showIAM {
				formatter.PrintPermissions(os.Stdout, awsclient.RequiredActions, awsclient.PermissionUnits)
				return nil
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := a.ec2Client(ctx)
			if err != nil {
				return err
			}

			estimator, err := pricing.NewEstimator(ctx)
			if err != nil {
				log.WithError(err).Warn("pricing API unavailable, using default prices")
				estimator = pricing.NewEstimatorFromAPI(nil)
			}

			scanStart := time.Now()
			s := startSpinner(fmt.Sprintf("Scanning resources tagged Name=%s in %s ...", client.Tag(), client.Region()))

			inv, err := inventory.Collect(ctx, client, estimator)
			scanDuration := time.Since(scanStart)
			if err != nil {
				s.FinalMSG = "✗ Scan failed\n"
				s.Stop()
				return err
			}
			s.FinalMSG = fmt.Sprintf("✓ [%d instances, %d volumes, %d snapshots] Completed in %.2f seconds\n",
				len(inv.Instances), len(inv.Volumes), len(inv.Snapshots), scanDuration.Seconds())
			s.Stop()

			now := time.Now()
			fmt.Println("\n## Instances")
			formatter.PrintInstancesTable(os.Stdout, inv.Instances, now, a.cfg.ZombieAge)
			fmt.Println("\n## Volumes")
			formatter.PrintVolumesTable(os.Stdout, inv.Volumes, now)
			fmt.Println("\n## Snapshots")
			formatter.PrintSnapshotsTable(os.Stdout, inv.Snapshots, inv.KeptSnapshot, now)

			fmt.Println("\n## Estimated Cost")
			fmt.Printf("Storage (volumes + snapshots): $%.2f/month\n", inv.MonthlyStorageCost())
			fmt.Printf("Compute (running, spot):       $%.4f/hour ($%.2f/month if left running)\n",
				inv.HourlyComputeCost(), inv.MonthlyComputeCost())
			fmt.Println()
			formatter.PrintScanTime(os.Stdout, scanStart, scanDuration)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showIAM, "iam", false, "Print the IAM actions each unit requires and exit")
	return cmd
}
