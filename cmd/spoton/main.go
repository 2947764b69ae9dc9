package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/younsl/spoton/internal/config"
	"github.com/younsl/spoton/internal/logging"
	"github.com/younsl/spoton/internal/version"
	awsclient "github.com/younsl/spoton/pkg/aws"
	"github.com/younsl/spoton/pkg/janitor"
	"github.com/younsl/spoton/pkg/starter"
	"github.com/younsl/spoton/pkg/userdata"
	"github.com/younsl/spoton/pkg/utils"
)

// app carries the loaded configuration to every subcommand
type app struct {
	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spoton",
		Short: "Lifecycle manager for a personal spot EC2 workstation",
		Long: `spoton provisions a single spot EC2 instance on demand, keeps its root
disk as a snapshot, and reclaims unused volumes, old snapshots and
instances that have been running for too long.`,
		Version:       version.Get(userdata.Version).String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = config.Load(v)
			return logging.Setup(a.cfg.LogLevel, a.cfg.LogFormat)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("spoton version {{.Version}}\n")

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newJanitorCmd(a),
		newStartCmd(a),
		newServeCmd(a),
		newLambdaCmd(a),
		newStatusCmd(a),
		newUserdataCmd(a),
	)
	return rootCmd
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ec2Client builds the EC2 client for the configured or discovered region
func (a *app) ec2Client(ctx context.Context) (*awsclient.EC2Client, error) {
	region, err := awsclient.ResolveRegion(ctx, a.cfg.Region)
	if err != nil {
		return nil, err
	}
	if !utils.IsValidRegion(region) {
		log.WithField("region", region).Warn("region is not in the known region list")
	}

	client, err := awsclient.NewEC2Client(ctx, region, a.cfg.Tag)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"region": region,
		"tag":    a.cfg.Tag,
	}).Debug("EC2 client ready")
	return client, nil
}

func (a *app) newJanitor(client janitor.Cloud) *janitor.Janitor {
	return janitor.New(client,
		janitor.WithZombieAge(a.cfg.ZombieAge),
		janitor.WithAvailableOnly(a.cfg.AvailableOnly),
	)
}

func (a *app) newStarter(client *awsclient.EC2Client) *starter.Handler {
	var placer starter.Placer
	switch a.cfg.Placement {
	case config.PlacementCheapestZone:
		zones := utils.ZoneNames(client.Region(), a.cfg.ZoneSuffixes)
		placer = starter.NewCheapestZonePlacer(client, a.cfg.InstanceTypes[0], zones)
	default:
		placer = &starter.FallbackPlacer{
			InstanceTypes: a.cfg.InstanceTypes,
			SubnetIDs:     a.cfg.SubnetIDs,
		}
	}

	var securityGroups []string
	if a.cfg.SecurityGroupID != "" {
		securityGroups = []string{a.cfg.SecurityGroupID}
	}

	return starter.New(client, placer, starter.Config{
		Passcode:             a.cfg.Passcode,
		Existing:             starter.ExistingCheck(a.cfg.ExistingCheck),
		ImageID:              a.cfg.ImageID,
		KeyName:              a.cfg.KeyName,
		SecurityGroupIDs:     securityGroups,
		SpotType:             a.cfg.SpotType,
		InterruptionBehavior: a.cfg.InterruptionBehavior,
		DeviceName:           a.cfg.DeviceName,
		VolumeSize:           a.cfg.VolumeSize,
		VolumeType:           a.cfg.VolumeType,
		Watchdog:             a.cfg.Watchdog,
	})
}
