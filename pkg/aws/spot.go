package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/pricing"
	"github.com/younsl/spoton/pkg/utils"
)

const spotProductDescription = "Linux/UNIX"

// LaunchInput describes one spot instance launch
type LaunchInput struct {
	ImageID              string
	Placement            models.Placement
	SecurityGroupIDs     []string
	KeyName              string
	SpotType             string // "one-time" or "persistent"
	InterruptionBehavior string // "", "hibernate", "stop" or "terminate"
	DeviceName           string
	VolumeSize           int
	VolumeType           string
	SnapshotID           string // empty boots a blank volume
	UserData             string // base64 encoded
}

// SpotPrices returns the current spot price of instanceType in each of the given zones,
// in the order the API lists them
func (c *EC2Client) SpotPrices(ctx context.Context, instanceType string, zones []string) ([]models.SpotPrice, error) {
	input := &ec2.DescribeSpotPriceHistoryInput{
		InstanceTypes:       []types.InstanceType{types.InstanceType(instanceType)},
		ProductDescriptions: []string{spotProductDescription},
		StartTime:           aws.Time(time.Now()),
	}
	if len(zones) > 0 {
		input.Filters = []types.Filter{
			{
				Name:   aws.String("availability-zone"),
				Values: zones,
			},
		}
	}

	prices := []models.SpotPrice{}

	paginator := ec2.NewDescribeSpotPriceHistoryPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying spot price history: %w", err)
		}

		for _, entry := range page.SpotPriceHistory {
			price, err := pricing.ParseSpotPrice(aws.ToString(entry.SpotPrice))
			if err != nil {
				log.WithError(err).WithField("zone", aws.ToString(entry.AvailabilityZone)).Warn("skipping spot price entry")
				continue
			}
			prices = append(prices, models.SpotPrice{
				AvailabilityZone: aws.ToString(entry.AvailabilityZone),
				InstanceType:     string(entry.InstanceType),
				Price:            price,
				Timestamp:        aws.ToTime(entry.Timestamp),
			})
		}
	}

	return prices, nil
}

// RunSpotInstance launches exactly one spot instance. The instance and its
// volumes carry the managed Name tag.
func (c *EC2Client) RunSpotInstance(ctx context.Context, in LaunchInput) (*models.LaunchedInstance, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(in.ImageID),
		InstanceType: types.InstanceType(in.Placement.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		InstanceMarketOptions: &types.InstanceMarketOptionsRequest{
			MarketType: types.MarketTypeSpot,
			SpotOptions: &types.SpotMarketOptions{
				SpotInstanceType: types.SpotInstanceType(in.SpotType),
			},
		},
		BlockDeviceMappings: []types.BlockDeviceMapping{
			{
				DeviceName: aws.String(in.DeviceName),
				Ebs: &types.EbsBlockDevice{
					DeleteOnTermination: aws.Bool(false),
					VolumeType:          types.VolumeType(in.VolumeType),
					VolumeSize:          aws.Int32(int32(in.VolumeSize)),
				},
			},
		},
		TagSpecifications: utils.NameTagSpecifications(c.tag, types.ResourceTypeInstance, types.ResourceTypeVolume),
	}

	if in.InterruptionBehavior != "" {
		input.InstanceMarketOptions.SpotOptions.InstanceInterruptionBehavior = types.InstanceInterruptionBehavior(in.InterruptionBehavior)
	}
	if in.SnapshotID != "" {
		input.BlockDeviceMappings[0].Ebs.SnapshotId = aws.String(in.SnapshotID)
	}
	if in.Placement.SubnetID != "" {
		input.SubnetId = aws.String(in.Placement.SubnetID)
	}
	if in.Placement.AvailabilityZone != "" {
		input.Placement = &types.Placement{
			AvailabilityZone: aws.String(in.Placement.AvailabilityZone),
		}
	}
	if len(in.SecurityGroupIDs) > 0 {
		input.SecurityGroupIds = in.SecurityGroupIDs
	}
	if in.KeyName != "" {
		input.KeyName = aws.String(in.KeyName)
	}
	if in.UserData != "" {
		input.UserData = aws.String(in.UserData)
	}

	result, err := c.client.RunInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error launching spot instance %s: %w", in.Placement, err)
	}
	if len(result.Instances) == 0 {
		return nil, errors.New("error launching spot instance: no instance returned")
	}

	instance := c.toInstanceInfo(result.Instances[0])
	return &models.LaunchedInstance{
		InstanceID:       instance.InstanceID,
		ReservationID:    aws.ToString(result.ReservationId),
		InstanceType:     instance.InstanceType,
		State:            instance.State,
		AvailabilityZone: instance.AvailabilityZone,
		SubnetID:         instance.SubnetID,
		LaunchTime:       instance.LaunchTime,
		RestoredFrom:     in.SnapshotID,
	}, nil
}
