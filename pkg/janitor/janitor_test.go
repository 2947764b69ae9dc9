package janitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/spoton/internal/models"
	awsclient "github.com/younsl/spoton/pkg/aws"
	"github.com/younsl/spoton/pkg/aws/ec2fake"
)

const tag = "spoton"

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newJanitor(fake *ec2fake.Fake, opts ...Option) *Janitor {
	client := awsclient.NewEC2ClientFromAPI(fake, "ap-northeast-2", tag)
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(client, opts...)
}

func TestRemoveUnusedVolumes(t *testing.T) {
	fake := ec2fake.New()
	fake.Volumes = []types.Volume{
		ec2fake.Volume("vol-free-1", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-free-2", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-attached", types.VolumeStateInUse, 1, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-other", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", "someone-else")),
		ec2fake.Volume("vol-untagged", types.VolumeStateAvailable, 0, nil),
	}

	var report models.CleanupReport
	err := newJanitor(fake).RemoveUnusedVolumes(context.Background(), &report)
	require.NoError(t, err)

	assert.Equal(t, []string{"vol-free-1", "vol-free-2"}, fake.CreatedSnapshots)
	assert.Equal(t, []string{"vol-free-1", "vol-free-2"}, fake.DeletedVolumes)
	assert.Equal(t, []string{"vol-free-1", "vol-free-2"}, report.DeletedVolumes)
	assert.Len(t, report.CreatedSnapshots, 2)
}

func TestRemoveUnusedVolumesIncludesAttachedWhenNotAvailableOnly(t *testing.T) {
	fake := ec2fake.New()
	fake.Volumes = []types.Volume{
		ec2fake.Volume("vol-attached", types.VolumeStateInUse, 1, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-free", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
	}

	var report models.CleanupReport
	err := newJanitor(fake, WithAvailableOnly(false)).RemoveUnusedVolumes(context.Background(), &report)
	require.NoError(t, err)

	// the attachment check still protects in-use volumes
	assert.Equal(t, []string{"vol-free"}, fake.DeletedVolumes)
}

func TestRemoveUnusedVolumesKeepsVolumeWhenSnapshotFails(t *testing.T) {
	fake := ec2fake.New()
	fake.Volumes = []types.Volume{
		ec2fake.Volume("vol-1", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-2", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
	}
	fake.CreateSnapshotErr["vol-1"] = errors.New("SnapshotLimitExceeded")

	var report models.CleanupReport
	err := newJanitor(fake).RemoveUnusedVolumes(context.Background(), &report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SnapshotLimitExceeded")

	assert.Equal(t, []string{"vol-2"}, fake.DeletedVolumes)
	assert.Equal(t, []string{"vol-2"}, report.SnapshottedVolumes)
}

func TestRemoveUnusedVolumesContinuesAfterDeleteFailure(t *testing.T) {
	fake := ec2fake.New()
	fake.Volumes = []types.Volume{
		ec2fake.Volume("vol-1", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
		ec2fake.Volume("vol-2", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
	}
	fake.DeleteVolumeErr["vol-1"] = errors.New("VolumeInUse")

	var report models.CleanupReport
	err := newJanitor(fake).RemoveUnusedVolumes(context.Background(), &report)
	require.Error(t, err)

	assert.Equal(t, []string{"vol-1", "vol-2"}, fake.CreatedSnapshots)
	assert.Equal(t, []string{"vol-2"}, report.DeletedVolumes)
}

func TestRemoveUnusedVolumesListFailure(t *testing.T) {
	fake := ec2fake.New()
	fake.DescribeErr = errors.New("throttled")

	var report models.CleanupReport
	err := newJanitor(fake).RemoveUnusedVolumes(context.Background(), &report)
	require.Error(t, err)
	assert.Empty(t, fake.CreatedSnapshots)
	assert.True(t, report.Empty())
}

func TestKeepLatestSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		snapshots   []types.Snapshot
		wantKept    string
		wantDeleted []string
	}{
		{
			name:      "no snapshots",
			snapshots: nil,
		},
		{
			name: "single snapshot survives",
			snapshots: []types.Snapshot{
				ec2fake.Snapshot("snap-a", now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
			},
			wantKept: "snap-a",
		},
		{
			name: "newest survives and the rest go oldest first",
			snapshots: []types.Snapshot{
				ec2fake.Snapshot("snap-mid", now.Add(-2*time.Hour), ec2fake.Tags("Name", tag)),
				ec2fake.Snapshot("snap-new", now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
				ec2fake.Snapshot("snap-old", now.Add(-3*time.Hour), ec2fake.Tags("Name", tag)),
			},
			wantKept:    "snap-new",
			wantDeleted: []string{"snap-old", "snap-mid"},
		},
		{
			name: "tie keeps the first listed",
			snapshots: []types.Snapshot{
				ec2fake.Snapshot("snap-x", now, ec2fake.Tags("Name", tag)),
				ec2fake.Snapshot("snap-y", now, ec2fake.Tags("Name", tag)),
			},
			wantKept:    "snap-x",
			wantDeleted: []string{"snap-y"},
		},
		{
			name: "unmanaged snapshots are ignored",
			snapshots: []types.Snapshot{
				ec2fake.Snapshot("snap-mine", now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
				ec2fake.Snapshot("snap-theirs", now, ec2fake.Tags("Name", "other")),
			},
			wantKept: "snap-mine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := ec2fake.New()
			fake.Snapshots = tt.snapshots

			var report models.CleanupReport
			err := newJanitor(fake).KeepLatestSnapshot(context.Background(), &report)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKept, report.KeptSnapshot)
			assert.Equal(t, tt.wantDeleted, fake.DeletedSnapshots)
		})
	}
}

func TestKeepLatestSnapshotAggregatesDeleteFailures(t *testing.T) {
	fake := ec2fake.New()
	fake.Snapshots = []types.Snapshot{
		ec2fake.Snapshot("snap-1", now.Add(-3*time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Snapshot("snap-2", now.Add(-2*time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Snapshot("snap-3", now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
	}
	fake.DeleteSnapshotErr["snap-1"] = errors.New("InvalidSnapshot.InUse")

	var report models.CleanupReport
	err := newJanitor(fake).KeepLatestSnapshot(context.Background(), &report)
	require.Error(t, err)

	assert.Equal(t, []string{"snap-2"}, fake.DeletedSnapshots)
	assert.Equal(t, "snap-3", report.KeptSnapshot)
}

func TestKillZombieInstances(t *testing.T) {
	fake := ec2fake.New()
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-zombie", types.InstanceStateNameRunning, now.Add(-9*time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Instance("i-young", types.InstanceStateNameRunning, now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Instance("i-boundary", types.InstanceStateNameRunning, now.Add(-DefaultZombieAge), ec2fake.Tags("Name", tag)),
		ec2fake.Instance("i-stopped", types.InstanceStateNameStopped, now.Add(-48*time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Instance("i-foreign", types.InstanceStateNameRunning, now.Add(-48*time.Hour), ec2fake.Tags("Name", "other")),
		ec2fake.Instance("i-old", types.InstanceStateNameRunning, now.Add(-10*time.Hour), ec2fake.Tags("Name", tag)),
	}

	var report models.CleanupReport
	err := newJanitor(fake).KillZombieInstances(context.Background(), &report)
	require.NoError(t, err)

	require.Len(t, fake.TerminateCalls, 1)
	assert.Equal(t, []string{"i-zombie", "i-old"}, fake.TerminateCalls[0])
	assert.Equal(t, []string{"i-zombie", "i-old"}, report.TerminatedInstances)
}

func TestKillZombieInstancesNothingToDo(t *testing.T) {
	fake := ec2fake.New()
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-young", types.InstanceStateNameRunning, now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
	}

	var report models.CleanupReport
	err := newJanitor(fake).KillZombieInstances(context.Background(), &report)
	require.NoError(t, err)
	assert.Empty(t, fake.TerminateCalls)
}

func TestKillZombieInstancesCustomAge(t *testing.T) {
	fake := ec2fake.New()
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-1", types.InstanceStateNameRunning, now.Add(-2*time.Hour), ec2fake.Tags("Name", tag)),
	}

	var report models.CleanupReport
	err := newJanitor(fake, WithZombieAge(time.Hour)).KillZombieInstances(context.Background(), &report)
	require.NoError(t, err)
	require.Len(t, fake.TerminateCalls, 1)
	assert.Equal(t, []string{"i-1"}, fake.TerminateCalls[0])
}

func TestKillZombieInstancesTerminateFailure(t *testing.T) {
	fake := ec2fake.New()
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-zombie", types.InstanceStateNameRunning, now.Add(-9*time.Hour), ec2fake.Tags("Name", tag)),
	}
	fake.TerminateErr = errors.New("UnauthorizedOperation")

	var report models.CleanupReport
	err := newJanitor(fake).KillZombieInstances(context.Background(), &report)
	require.Error(t, err)
	assert.Empty(t, report.TerminatedInstances)
}

func TestRunContinuesAcrossPasses(t *testing.T) {
	fake := ec2fake.New()
	fake.Volumes = []types.Volume{
		ec2fake.Volume("vol-1", types.VolumeStateAvailable, 0, ec2fake.Tags("Name", tag)),
	}
	fake.CreateSnapshotErr["vol-1"] = errors.New("boom")
	fake.Snapshots = []types.Snapshot{
		ec2fake.Snapshot("snap-old", now.Add(-2*time.Hour), ec2fake.Tags("Name", tag)),
		ec2fake.Snapshot("snap-new", now.Add(-time.Hour), ec2fake.Tags("Name", tag)),
	}
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-zombie", types.InstanceStateNameRunning, now.Add(-9*time.Hour), ec2fake.Tags("Name", tag)),
	}

	report, err := newJanitor(fake).Run(context.Background())
	require.Error(t, err)

	assert.Empty(t, fake.DeletedVolumes)
	assert.Equal(t, []string{"snap-old"}, report.DeletedSnapshots)
	assert.Equal(t, []string{"i-zombie"}, report.TerminatedInstances)
}

func TestRunClean(t *testing.T) {
	fake := ec2fake.New()

	report, err := newJanitor(fake).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, fake.TerminateCalls)
}

func TestLatestSnapshot(t *testing.T) {
	_, ok := LatestSnapshot(nil)
	assert.False(t, ok)

	latest, ok := LatestSnapshot([]models.SnapshotInfo{
		{SnapshotID: "a", StartTime: now.Add(-time.Minute)},
		{SnapshotID: "b", StartTime: now},
		{SnapshotID: "c", StartTime: now},
	})
	require.True(t, ok)
	assert.Equal(t, "b", latest.SnapshotID)
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	fake := ec2fake.New()
	fake.Instances = []types.Instance{
		ec2fake.Instance("i-zombie", types.InstanceStateNameRunning, now.Add(-9*time.Hour), ec2fake.Tags("Name", tag)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- newJanitor(fake).RunEvery(ctx, time.Hour)
	}()

	require.Eventually(t, func() bool {
		return fake.TerminateCallCount() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
