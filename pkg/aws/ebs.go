package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/utils"
)

// ListVolumes returns managed EBS volumes. With availableOnly set, only
// volumes in the 'available' state are queried.
func (c *EC2Client) ListVolumes(ctx context.Context, availableOnly bool) ([]models.VolumeInfo, error) {
	filters := []types.Filter{utils.NameTagFilter(c.tag)}
	if availableOnly {
		filters = append(filters, types.Filter{
			Name:   aws.String("status"),
			Values: []string{string(types.VolumeStateAvailable)},
		})
	}

	volumes := []models.VolumeInfo{}

	paginator := ec2.NewDescribeVolumesPaginator(c.client, &ec2.DescribeVolumesInput{
		Filters: filters,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EBS volumes: %w", err)
		}

		for _, volume := range page.Volumes {
			volumes = append(volumes, models.VolumeInfo{
				VolumeID:         aws.ToString(volume.VolumeId),
				Name:             utils.GetName(volume.Tags),
				Size:             utils.SafeInt32(volume.Size),
				VolumeType:       string(volume.VolumeType),
				State:            string(volume.State),
				Region:           c.region,
				AvailabilityZone: aws.ToString(volume.AvailabilityZone),
				CreationTime:     aws.ToTime(volume.CreateTime),
				Attachments:      len(volume.Attachments),
			})
		}
	}

	return volumes, nil
}

// CreateSnapshot snapshots a volume and tags the snapshot as managed
func (c *EC2Client) CreateSnapshot(ctx context.Context, volumeID string) (string, error) {
	result, err := c.client.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:          aws.String(volumeID),
		Description:       aws.String(fmt.Sprintf("%s: snapshot of %s", c.tag, volumeID)),
		TagSpecifications: utils.NameTagSpecifications(c.tag, types.ResourceTypeSnapshot),
	})
	if err != nil {
		return "", fmt.Errorf("error creating snapshot of volume %s: %w", volumeID, err)
	}
	return aws.ToString(result.SnapshotId), nil
}

// DeleteVolume deletes an EBS volume
func (c *EC2Client) DeleteVolume(ctx context.Context, volumeID string) error {
	_, err := c.client.DeleteVolume(ctx, &ec2.DeleteVolumeInput{
		VolumeId: aws.String(volumeID),
	})
	if err != nil {
		return fmt.Errorf("error deleting volume %s: %w", volumeID, err)
	}
	return nil
}

// ListSnapshots returns managed snapshots owned by this account
func (c *EC2Client) ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, error) {
	snapshots := []models.SnapshotInfo{}

	paginator := ec2.NewDescribeSnapshotsPaginator(c.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters:  []types.Filter{utils.NameTagFilter(c.tag)},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EBS snapshots: %w", err)
		}

		for _, snapshot := range page.Snapshots {
			snapshots = append(snapshots, models.SnapshotInfo{
				SnapshotID:  aws.ToString(snapshot.SnapshotId),
				VolumeID:    aws.ToString(snapshot.VolumeId),
				Description: aws.ToString(snapshot.Description),
				State:       string(snapshot.State),
				Size:        utils.SafeInt32(snapshot.VolumeSize),
				Region:      c.region,
				StartTime:   aws.ToTime(snapshot.StartTime),
			})
		}
	}

	return snapshots, nil
}

// DeleteSnapshot deletes an EBS snapshot
func (c *EC2Client) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	_, err := c.client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
	})
	if err != nil {
		return fmt.Errorf("error deleting snapshot %s: %w", snapshotID, err)
	}
	return nil
}
