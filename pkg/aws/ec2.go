package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/utils"
)

// EC2API is the subset of the EC2 service client spoton calls.
// *ec2.Client satisfies it.
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	ec2.DescribeVolumesAPIClient
	ec2.DescribeSnapshotsAPIClient
	ec2.DescribeSpotPriceHistoryAPIClient

	CreateSnapshot(ctx context.Context, params *ec2.CreateSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error)
	DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error)
	DeleteVolume(ctx context.Context, params *ec2.DeleteVolumeInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
}

// EC2Client wraps the EC2 API scoped to one region and one Name tag
type EC2Client struct {
	client EC2API
	region string
	tag    string
}

// NewEC2Client creates a new EC2Client using the default credential chain
func NewEC2Client(ctx context.Context, region, tag string) (*EC2Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return NewEC2ClientFromAPI(ec2.NewFromConfig(cfg), region, tag), nil
}

// NewEC2ClientFromAPI wraps an existing EC2 API implementation
func NewEC2ClientFromAPI(api EC2API, region, tag string) *EC2Client {
	return &EC2Client{
		client: api,
		region: region,
		tag:    tag,
	}
}

// Region returns the region the client is bound to
func (c *EC2Client) Region() string {
	return c.region
}

// Tag returns the Name tag value selecting managed resources
func (c *EC2Client) Tag() string {
	return c.tag
}

// ListInstances returns every managed instance, optionally restricted to the given states
func (c *EC2Client) ListInstances(ctx context.Context, states ...string) ([]models.InstanceInfo, error) {
	filters := []types.Filter{utils.NameTagFilter(c.tag)}
	if len(states) > 0 {
		filters = append(filters, types.Filter{
			Name:   aws.String("instance-state-name"),
			Values: states,
		})
	}

	instances := []models.InstanceInfo{}

	paginator := ec2.NewDescribeInstancesPaginator(c.client, &ec2.DescribeInstancesInput{
		Filters: filters,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EC2 instances: %w", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, c.toInstanceInfo(instance))
			}
		}
	}

	return instances, nil
}

// TerminateInstances terminates all given instances in a single call.
// An empty list is a no-op.
func (c *EC2Client) TerminateInstances(ctx context.Context, instanceIDs []string) error {
	if len(instanceIDs) == 0 {
		return nil
	}

	_, err := c.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: instanceIDs,
	})
	if err != nil {
		return fmt.Errorf("error terminating EC2 instances %v: %w", instanceIDs, err)
	}
	return nil
}

func (c *EC2Client) toInstanceInfo(instance types.Instance) models.InstanceInfo {
	info := models.InstanceInfo{
		InstanceID:   aws.ToString(instance.InstanceId),
		Name:         utils.GetName(instance.Tags),
		InstanceType: string(instance.InstanceType),
		Lifecycle:    string(instance.InstanceLifecycle),
		Region:       c.region,
		SubnetID:     aws.ToString(instance.SubnetId),
		LaunchTime:   aws.ToTime(instance.LaunchTime),
	}
	if instance.State != nil {
		info.State = string(instance.State.Name)
	}
	if instance.Placement != nil {
		info.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	return info
}
