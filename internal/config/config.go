// Package config loads spoton settings from flags, environment variables and
// an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/younsl/spoton/pkg/userdata"
)

// Placement strategies
const (
	PlacementFallback     = "fallback"
	PlacementCheapestZone = "cheapest-zone"
)

// DefaultImageID resolves the latest Ubuntu 24.04 gp3 AMI through SSM
const DefaultImageID = "resolve:ssm:/aws/service/canonical/ubuntu/server/24.04/stable/current/amd64/hvm/ebs-gp3/ami-id"

// Config holds every setting of every command
type Config struct {
	Region string
	Tag    string

	// provisioning
	Passcode             string
	SubnetIDs            []string
	SecurityGroupID      string
	InstanceTypes        []string
	ZoneSuffixes         []string
	Placement            string
	ExistingCheck        string
	ImageID              string
	KeyName              string
	VolumeSize           int
	VolumeType           string
	DeviceName           string
	SpotType             string
	InterruptionBehavior string
	Watchdog             userdata.Options

	// cleanup
	ZombieAge       time.Duration
	CleanupInterval time.Duration
	AvailableOnly   bool

	Listen    string
	LogLevel  string
	LogFormat string
}

// RegisterFlags defines every setting as a flag with its default value
func RegisterFlags(fs *pflag.FlagSet) {
	watchdog := userdata.DefaultOptions()

	fs.String("region", "", "AWS region (defaults to the SDK chain, then instance metadata)")
	fs.String("tag", "spoton", "Name tag value selecting managed resources")

	fs.String("passcode", "", "Shared secret expected in the passcode header")
	fs.StringSlice("subnet-ids", nil, "Candidate subnets for the fallback placement (env VPC_SUBNET_IDS)")
	fs.String("security-group-id", "", "Security group attached to the instance")
	fs.StringSlice("instance-types", []string{"c7i-flex.2xlarge", "c7i.2xlarge"}, "Instance types in preference order")
	fs.StringSlice("zone-suffixes", []string{"a", "b", "c", "d"}, "Zone suffixes compared by the cheapest-zone placement")
	fs.String("placement", PlacementFallback, "Placement strategy: fallback or cheapest-zone")
	fs.String("existing-check", "running", "Instances that block a launch: running or any")
	fs.String("image-id", DefaultImageID, "AMI ID or resolve:ssm: alias")
	fs.String("key-name", "", "EC2 key pair name")
	fs.Int("volume-size", 64, "Root volume size in GiB")
	fs.String("volume-type", "gp3", "Root volume type")
	fs.String("device-name", "/dev/xvda", "Root device name")
	fs.String("spot-type", "one-time", "Spot request type: one-time or persistent")
	fs.String("interruption-behavior", "", "Spot interruption behavior: hibernate, stop or terminate")
	fs.Int("watchdog-port", watchdog.Port, "Port whose established connections keep the instance alive")
	fs.Int("watchdog-interval", watchdog.IntervalMinutes, "Minutes between idle checks")
	fs.Int("watchdog-strikes", watchdog.IdleStrikes, "Consecutive idle checks before shutdown")

	fs.Duration("zombie-age", 8*time.Hour, "Uptime after which a running instance is terminated")
	fs.Duration("cleanup-interval", 5*time.Minute, "Interval between cleanup runs in long-running mode")
	fs.Bool("available-only", true, "Only consider volumes in the available state")

	fs.String("listen", ":8080", "HTTP listen address")
	fs.String("log-level", "info", "Log level")
	fs.String("log-format", "text", "Log format: text or json")
}

// New returns a viper instance bound to fs and the environment. A .env file
// in the working directory is loaded first if present.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("subnet-ids", "VPC_SUBNET_IDS", "SUBNET_IDS"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}
	return v, nil
}

// Load reads a Config out of v
func Load(v *viper.Viper) *Config {
	watchdog := userdata.DefaultOptions()
	watchdog.Port = v.GetInt("watchdog-port")
	watchdog.IntervalMinutes = v.GetInt("watchdog-interval")
	watchdog.IdleStrikes = v.GetInt("watchdog-strikes")

	return &Config{
		Region:               v.GetString("region"),
		Tag:                  v.GetString("tag"),
		Passcode:             v.GetString("passcode"),
		SubnetIDs:            splitList(v.GetStringSlice("subnet-ids")),
		SecurityGroupID:      v.GetString("security-group-id"),
		InstanceTypes:        splitList(v.GetStringSlice("instance-types")),
		ZoneSuffixes:         splitList(v.GetStringSlice("zone-suffixes")),
		Placement:            v.GetString("placement"),
		ExistingCheck:        v.GetString("existing-check"),
		ImageID:              v.GetString("image-id"),
		KeyName:              v.GetString("key-name"),
		VolumeSize:           v.GetInt("volume-size"),
		VolumeType:           v.GetString("volume-type"),
		DeviceName:           v.GetString("device-name"),
		SpotType:             v.GetString("spot-type"),
		InterruptionBehavior: v.GetString("interruption-behavior"),
		Watchdog:             watchdog,
		ZombieAge:            v.GetDuration("zombie-age"),
		CleanupInterval:      v.GetDuration("cleanup-interval"),
		AvailableOnly:        v.GetBool("available-only"),
		Listen:               v.GetString("listen"),
		LogLevel:             v.GetString("log-level"),
		LogFormat:            v.GetString("log-format"),
	}
}

// ValidateJanitor checks the settings the cleanup unit needs
func (c *Config) ValidateJanitor() error {
	var result *multierror.Error
	if c.Tag == "" {
		result = multierror.Append(result, errors.New("tag must not be empty"))
	}
	if c.ZombieAge <= 0 {
		result = multierror.Append(result, fmt.Errorf("zombie-age must be positive, got %s", c.ZombieAge))
	}
	return result.ErrorOrNil()
}

// ValidateStarter checks the settings the provisioning unit needs
func (c *Config) ValidateStarter() error {
	var result *multierror.Error
	if c.Tag == "" {
		result = multierror.Append(result, errors.New("tag must not be empty"))
	}
	if c.Passcode == "" {
		result = multierror.Append(result, errors.New("passcode is required"))
	}
	if len(c.InstanceTypes) == 0 {
		result = multierror.Append(result, errors.New("at least one instance type is required"))
	}
	if c.ImageID == "" {
		result = multierror.Append(result, errors.New("image-id is required"))
	}
	if c.VolumeSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("volume-size must be positive, got %d", c.VolumeSize))
	}

	switch c.Placement {
	case PlacementFallback:
		if len(c.SubnetIDs) == 0 {
			result = multierror.Append(result, errors.New("fallback placement requires subnet-ids (VPC_SUBNET_IDS)"))
		}
	case PlacementCheapestZone:
		if len(c.ZoneSuffixes) == 0 {
			result = multierror.Append(result, errors.New("cheapest-zone placement requires zone-suffixes"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown placement %q", c.Placement))
	}

	switch c.ExistingCheck {
	case "running", "any":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown existing-check %q", c.ExistingCheck))
	}

	switch c.SpotType {
	case "one-time", "persistent":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown spot-type %q", c.SpotType))
	}

	switch c.InterruptionBehavior {
	case "", "hibernate", "stop", "terminate":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown interruption-behavior %q", c.InterruptionBehavior))
	}
	if c.InterruptionBehavior != "" && c.InterruptionBehavior != "terminate" && c.SpotType != "persistent" {
		result = multierror.Append(result, fmt.Errorf("interruption-behavior %q requires spot-type persistent", c.InterruptionBehavior))
	}

	if err := c.Watchdog.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// splitList flattens comma separated entries. Environment variables arrive
// as a single comma separated string.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
