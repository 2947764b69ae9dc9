package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// imdsTimeout bounds the metadata lookup when not running on EC2
const imdsTimeout = 2 * time.Second

// ResolveRegion returns the configured region, falling back to the SDK
// default chain (AWS_REGION, shared config) and then instance metadata.
func ResolveRegion(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("error loading AWS config: %w", err)
	}
	if cfg.Region != "" {
		return cfg.Region, nil
	}

	ctx, cancel := context.WithTimeout(ctx, imdsTimeout)
	defer cancel()

	out, err := imds.NewFromConfig(cfg).GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("error resolving AWS region from instance metadata: %w", err)
	}
	return out.Region, nil
}
