// Package ec2fake provides an in-memory EC2API for tests. Describe calls
// honour the tag, status, state and zone filters spoton sends.
package ec2fake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Fake is a programmable EC2 API
type Fake struct {
	mu sync.Mutex

	Instances  []types.Instance
	Volumes    []types.Volume
	Snapshots  []types.Snapshot
	SpotPrices []types.SpotPrice

	DescribeErr       error
	CreateSnapshotErr map[string]error // keyed by volume ID
	DeleteVolumeErr   map[string]error // keyed by volume ID
	DeleteSnapshotErr map[string]error // keyed by snapshot ID
	TerminateErr      error

	// RunInstancesFunc overrides the default launch behaviour when set
	RunInstancesFunc func(in *ec2.RunInstancesInput) (*ec2.RunInstancesOutput, error)

	CreatedSnapshots []string // volume IDs in call order
	DeletedVolumes   []string
	DeletedSnapshots []string
	TerminateCalls   [][]string
	RunCalls         []*ec2.RunInstancesInput

	nextID int
}

// New returns an empty fake
func New() *Fake {
	return &Fake{
		CreateSnapshotErr: map[string]error{},
		DeleteVolumeErr:   map[string]error{},
		DeleteSnapshotErr: map[string]error{},
	}
}

// Tags builds a tag list from key/value pairs
func Tags(kv ...string) []types.Tag {
	var tags []types.Tag
	for i := 0; i+1 < len(kv); i += 2 {
		tags = append(tags, types.Tag{Key: aws.String(kv[i]), Value: aws.String(kv[i+1])})
	}
	return tags
}

// Instance builds a described instance
func Instance(id string, state types.InstanceStateName, launched time.Time, tags []types.Tag) types.Instance {
	return types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: types.InstanceType("c7i.2xlarge"),
		State:        &types.InstanceState{Name: state},
		LaunchTime:   aws.Time(launched),
		Placement:    &types.Placement{AvailabilityZone: aws.String("ap-northeast-2a")},
		Tags:         tags,
	}
}

// Volume builds a described volume with the given number of attachments
func Volume(id string, state types.VolumeState, attachments int, tags []types.Tag) types.Volume {
	v := types.Volume{
		VolumeId:         aws.String(id),
		State:            state,
		Size:             aws.Int32(64),
		VolumeType:       types.VolumeTypeGp3,
		AvailabilityZone: aws.String("ap-northeast-2a"),
		CreateTime:       aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Tags:             tags,
	}
	for i := 0; i < attachments; i++ {
		v.Attachments = append(v.Attachments, types.VolumeAttachment{
			InstanceId: aws.String(fmt.Sprintf("i-attached-%d", i)),
			VolumeId:   aws.String(id),
		})
	}
	return v
}

// Snapshot builds a described snapshot
func Snapshot(id string, started time.Time, tags []types.Tag) types.Snapshot {
	return types.Snapshot{
		SnapshotId: aws.String(id),
		VolumeId:   aws.String("vol-source"),
		StartTime:  aws.Time(started),
		State:      types.SnapshotStateCompleted,
		VolumeSize: aws.Int32(64),
		Tags:       tags,
	}
}

// SpotPrice builds a spot price history entry
func SpotPrice(zone, instanceType, price string) types.SpotPrice {
	return types.SpotPrice{
		AvailabilityZone:   aws.String(zone),
		InstanceType:       types.InstanceType(instanceType),
		ProductDescription: types.RIProductDescription("Linux/UNIX"),
		SpotPrice:          aws.String(price),
		Timestamp:          aws.Time(time.Now()),
	}
}

func (f *Fake) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	out := &ec2.DescribeInstancesOutput{}
	for _, inst := range f.Instances {
		state := ""
		if inst.State != nil {
			state = string(inst.State.Name)
		}
		if !matches(in.Filters, inst.Tags, map[string]string{"instance-state-name": state}) {
			continue
		}
		out.Reservations = append(out.Reservations, types.Reservation{
			ReservationId: aws.String("r-" + aws.ToString(inst.InstanceId)),
			Instances:     []types.Instance{inst},
		})
	}
	return out, nil
}

func (f *Fake) DescribeVolumes(_ context.Context, in *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	out := &ec2.DescribeVolumesOutput{}
	for _, v := range f.Volumes {
		if matches(in.Filters, v.Tags, map[string]string{"status": string(v.State)}) {
			out.Volumes = append(out.Volumes, v)
		}
	}
	return out, nil
}

func (f *Fake) DescribeSnapshots(_ context.Context, in *ec2.DescribeSnapshotsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	out := &ec2.DescribeSnapshotsOutput{}
	for _, s := range f.Snapshots {
		if matches(in.Filters, s.Tags, nil) {
			out.Snapshots = append(out.Snapshots, s)
		}
	}
	return out, nil
}

func (f *Fake) DescribeSpotPriceHistory(_ context.Context, in *ec2.DescribeSpotPriceHistoryInput, _ ...func(*ec2.Options)) (*ec2.DescribeSpotPriceHistoryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}

	out := &ec2.DescribeSpotPriceHistoryOutput{}
	for _, p := range f.SpotPrices {
		if len(in.InstanceTypes) > 0 && !containsType(in.InstanceTypes, p.InstanceType) {
			continue
		}
		if matches(in.Filters, nil, map[string]string{"availability-zone": aws.ToString(p.AvailabilityZone)}) {
			out.SpotPriceHistory = append(out.SpotPriceHistory, p)
		}
	}
	return out, nil
}

func (f *Fake) CreateSnapshot(_ context.Context, in *ec2.CreateSnapshotInput, _ ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	volumeID := aws.ToString(in.VolumeId)
	if err := f.CreateSnapshotErr[volumeID]; err != nil {
		return nil, err
	}
	f.CreatedSnapshots = append(f.CreatedSnapshots, volumeID)

	f.nextID++
	snapshotID := fmt.Sprintf("snap-%04d", f.nextID)
	var tags []types.Tag
	for _, spec := range in.TagSpecifications {
		tags = append(tags, spec.Tags...)
	}
	f.Snapshots = append(f.Snapshots, types.Snapshot{
		SnapshotId: aws.String(snapshotID),
		VolumeId:   in.VolumeId,
		StartTime:  aws.Time(time.Now()),
		State:      types.SnapshotStatePending,
		Tags:       tags,
	})
	return &ec2.CreateSnapshotOutput{SnapshotId: aws.String(snapshotID), VolumeId: in.VolumeId}, nil
}

func (f *Fake) DeleteSnapshot(_ context.Context, in *ec2.DeleteSnapshotInput, _ ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(in.SnapshotId)
	if err := f.DeleteSnapshotErr[id]; err != nil {
		return nil, err
	}
	f.DeletedSnapshots = append(f.DeletedSnapshots, id)

	kept := f.Snapshots[:0]
	for _, s := range f.Snapshots {
		if aws.ToString(s.SnapshotId) != id {
			kept = append(kept, s)
		}
	}
	f.Snapshots = kept
	return &ec2.DeleteSnapshotOutput{}, nil
}

func (f *Fake) DeleteVolume(_ context.Context, in *ec2.DeleteVolumeInput, _ ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(in.VolumeId)
	if err := f.DeleteVolumeErr[id]; err != nil {
		return nil, err
	}
	f.DeletedVolumes = append(f.DeletedVolumes, id)

	kept := f.Volumes[:0]
	for _, v := range f.Volumes {
		if aws.ToString(v.VolumeId) != id {
			kept = append(kept, v)
		}
	}
	f.Volumes = kept
	return &ec2.DeleteVolumeOutput{}, nil
}

func (f *Fake) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.TerminateErr != nil {
		return nil, f.TerminateErr
	}
	f.TerminateCalls = append(f.TerminateCalls, append([]string(nil), in.InstanceIds...))

	for i := range f.Instances {
		for _, id := range in.InstanceIds {
			if aws.ToString(f.Instances[i].InstanceId) == id {
				f.Instances[i].State = &types.InstanceState{Name: types.InstanceStateNameShuttingDown}
			}
		}
	}
	return &ec2.TerminateInstancesOutput{}, nil
}

// TerminateCallCount returns the number of TerminateInstances calls so far
func (f *Fake) TerminateCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TerminateCalls)
}

func (f *Fake) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.mu.Lock()
	f.RunCalls = append(f.RunCalls, in)
	override := f.RunInstancesFunc
	f.mu.Unlock()

	if override != nil {
		return override(in)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return LaunchOutput(in, fmt.Sprintf("i-%04d", f.nextID)), nil
}

// LaunchOutput builds the RunInstances response for a successful launch of in
func LaunchOutput(in *ec2.RunInstancesInput, instanceID string) *ec2.RunInstancesOutput {
	zone := "ap-northeast-2a"
	if in.Placement != nil && in.Placement.AvailabilityZone != nil {
		zone = aws.ToString(in.Placement.AvailabilityZone)
	}
	return &ec2.RunInstancesOutput{
		ReservationId: aws.String("r-" + instanceID),
		Instances: []types.Instance{
			{
				InstanceId:        aws.String(instanceID),
				InstanceType:      in.InstanceType,
				InstanceLifecycle: types.InstanceLifecycleTypeSpot,
				State:             &types.InstanceState{Name: types.InstanceStateNamePending},
				SubnetId:          in.SubnetId,
				Placement:         &types.Placement{AvailabilityZone: aws.String(zone)},
				LaunchTime:        aws.Time(time.Now()),
			},
		},
	}
}

// matches applies describe filters. "tag:<key>" filters are checked against
// tags; other filter names are looked up in attrs. Unknown names never match.
func matches(filters []types.Filter, tags []types.Tag, attrs map[string]string) bool {
	for _, filter := range filters {
		name := aws.ToString(filter.Name)
		var value string
		var ok bool
		if key, isTag := strings.CutPrefix(name, "tag:"); isTag {
			for _, t := range tags {
				if aws.ToString(t.Key) == key {
					value, ok = aws.ToString(t.Value), true
					break
				}
			}
		} else {
			value, ok = attrs[name]
		}
		if !ok || !contains(filter.Values, value) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsType(list []types.InstanceType, t types.InstanceType) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}
