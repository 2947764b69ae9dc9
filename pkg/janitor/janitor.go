// Package janitor reconciles managed EC2 resources: it snapshots and removes
// unattached volumes, keeps only the newest snapshot and terminates instances
// that have been running for too long.
package janitor

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
)

// DefaultZombieAge is how long a managed instance may run before it is terminated
const DefaultZombieAge = 8 * time.Hour

// Cloud is the EC2 surface the janitor needs
type Cloud interface {
	ListVolumes(ctx context.Context, availableOnly bool) ([]models.VolumeInfo, error)
	CreateSnapshot(ctx context.Context, volumeID string) (string, error)
	DeleteVolume(ctx context.Context, volumeID string) error
	ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error
	ListInstances(ctx context.Context, states ...string) ([]models.InstanceInfo, error)
	TerminateInstances(ctx context.Context, instanceIDs []string) error
}

// Janitor runs the cleanup passes against one Cloud
type Janitor struct {
	cloud         Cloud
	zombieAge     time.Duration
	availableOnly bool
	now           func() time.Time
}

// Option configures a Janitor
type Option func(*Janitor)

// WithZombieAge overrides DefaultZombieAge
func WithZombieAge(d time.Duration) Option {
	return func(j *Janitor) { j.zombieAge = d }
}

// WithAvailableOnly restricts volume listing to the 'available' state
func WithAvailableOnly(v bool) Option {
	return func(j *Janitor) { j.availableOnly = v }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) { j.now = now }
}

// New creates a Janitor
func New(cloud Cloud, opts ...Option) *Janitor {
	j := &Janitor{
		cloud:         cloud,
		zombieAge:     DefaultZombieAge,
		availableOnly: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run executes the three passes in order. Passes are independent: a failing
// pass does not stop the following ones. The returned error aggregates every
// failure of the run.
func (j *Janitor) Run(ctx context.Context) (models.CleanupReport, error) {
	var report models.CleanupReport
	var result *multierror.Error

	if err := j.RemoveUnusedVolumes(ctx, &report); err != nil {
		result = multierror.Append(result, err)
	}
	if err := j.KeepLatestSnapshot(ctx, &report); err != nil {
		result = multierror.Append(result, err)
	}
	if err := j.KillZombieInstances(ctx, &report); err != nil {
		result = multierror.Append(result, err)
	}

	return report, result.ErrorOrNil()
}

// RunEvery runs a full cleanup immediately and then on every tick until ctx
// is cancelled. Failed runs are logged and retried on the next tick.
func (j *Janitor) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval.String()).Info("cleanup scheduler started")
	for {
		j.runLogged(ctx)

		select {
		case <-ctx.Done():
			log.Info("cleanup scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (j *Janitor) runLogged(ctx context.Context) {
	report, err := j.Run(ctx)
	fields := log.Fields{
		"deletedVolumes":      len(report.DeletedVolumes),
		"deletedSnapshots":    len(report.DeletedSnapshots),
		"terminatedInstances": len(report.TerminatedInstances),
	}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("cleanup run failed")
		return
	}
	log.WithFields(fields).Info("cleanup run completed")
}

// RemoveUnusedVolumes snapshots every unattached managed volume and then
// deletes the volumes whose snapshot was created. A volume is never deleted
// without a snapshot.
func (j *Janitor) RemoveUnusedVolumes(ctx context.Context, report *models.CleanupReport) error {
	volumes, err := j.cloud.ListVolumes(ctx, j.availableOnly)
	if err != nil {
		return err
	}

	unattached := lo.Filter(volumes, func(v models.VolumeInfo, _ int) bool {
		return v.Unattached()
	})

	var result *multierror.Error
	var snapshotted []string

	for _, volume := range unattached {
		snapshotID, err := j.cloud.CreateSnapshot(ctx, volume.VolumeID)
		if err != nil {
			log.WithError(err).WithField("volume", volume.VolumeID).Error("snapshot failed, keeping volume")
			result = multierror.Append(result, err)
			continue
		}
		log.WithFields(log.Fields{
			"volume":   volume.VolumeID,
			"snapshot": snapshotID,
		}).Info("snapshotted unused volume")
		snapshotted = append(snapshotted, volume.VolumeID)
		report.SnapshottedVolumes = append(report.SnapshottedVolumes, volume.VolumeID)
		report.CreatedSnapshots = append(report.CreatedSnapshots, snapshotID)
	}

	for _, volumeID := range snapshotted {
		if err := j.cloud.DeleteVolume(ctx, volumeID); err != nil {
			log.WithError(err).WithField("volume", volumeID).Error("delete failed")
			result = multierror.Append(result, err)
			continue
		}
		log.WithField("volume", volumeID).Info("deleted unused volume")
		report.DeletedVolumes = append(report.DeletedVolumes, volumeID)
	}

	return result.ErrorOrNil()
}

// KeepLatestSnapshot deletes every managed snapshot except the newest one.
// The survivor is chosen by LatestSnapshot, the same rule the provisioner
// uses for its restore source.
func (j *Janitor) KeepLatestSnapshot(ctx context.Context, report *models.CleanupReport) error {
	snapshots, err := j.cloud.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	latest, ok := LatestSnapshot(snapshots)
	if !ok {
		return nil
	}
	report.KeptSnapshot = latest.SnapshotID

	stale := lo.Filter(snapshots, func(s models.SnapshotInfo, _ int) bool {
		return s.SnapshotID != latest.SnapshotID
	})
	sort.SliceStable(stale, func(a, b int) bool {
		return stale[a].StartTime.Before(stale[b].StartTime)
	})

	var result *multierror.Error
	for _, snapshot := range stale {
		if err := j.cloud.DeleteSnapshot(ctx, snapshot.SnapshotID); err != nil {
			log.WithError(err).WithField("snapshot", snapshot.SnapshotID).Error("delete failed")
			result = multierror.Append(result, err)
			continue
		}
		log.WithFields(log.Fields{
			"snapshot": snapshot.SnapshotID,
			"kept":     latest.SnapshotID,
		}).Info("deleted old snapshot")
		report.DeletedSnapshots = append(report.DeletedSnapshots, snapshot.SnapshotID)
	}

	return result.ErrorOrNil()
}

// KillZombieInstances terminates, in one call, every running managed instance
// whose uptime exceeds the zombie age
func (j *Janitor) KillZombieInstances(ctx context.Context, report *models.CleanupReport) error {
	instances, err := j.cloud.ListInstances(ctx)
	if err != nil {
		return err
	}

	zombies := j.Zombies(instances)
	if len(zombies) == 0 {
		return nil
	}

	ids := make([]string, 0, len(zombies))
	for _, instance := range zombies {
		log.WithFields(log.Fields{
			"instance":   instance.InstanceID,
			"type":       instance.InstanceType,
			"launchTime": instance.LaunchTime,
			"uptime":     instance.Uptime(j.now()).Round(time.Minute).String(),
		}).Warn("found zombie instance")
		ids = append(ids, instance.InstanceID)
	}

	if err := j.cloud.TerminateInstances(ctx, ids); err != nil {
		return err
	}
	report.TerminatedInstances = append(report.TerminatedInstances, ids...)
	return nil
}

// Zombies returns the running instances whose uptime is strictly greater than the zombie age
func (j *Janitor) Zombies(instances []models.InstanceInfo) []models.InstanceInfo {
	now := j.now()
	return lo.Filter(instances, func(i models.InstanceInfo, _ int) bool {
		return i.IsRunning() && i.Uptime(now) > j.zombieAge
	})
}

// LatestSnapshot returns the snapshot with the greatest start time. When
// several share it, the first one listed wins.
func LatestSnapshot(snapshots []models.SnapshotInfo) (models.SnapshotInfo, bool) {
	if len(snapshots) == 0 {
		return models.SnapshotInfo{}, false
	}
	return lo.MaxBy(snapshots, func(a, b models.SnapshotInfo) bool {
		return a.StartTime.After(b.StartTime)
	}), true
}
