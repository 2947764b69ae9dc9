package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/younsl/spoton/internal/models"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPrintInstancesTable(t *testing.T) {
	var buf bytes.Buffer
	PrintInstancesTable(&buf, []models.InstanceInfo{
		{
			InstanceID:     "i-zombie",
			Name:           "spoton",
			InstanceType:   "c7i.2xlarge",
			State:          "running",
			Lifecycle:      "spot",
			LaunchTime:     now.Add(-9 * time.Hour),
			SpotHourly:     0.1234,
			OnDemandHourly: 0.357,
			PricingSource:  "API",
		},
		{
			InstanceID:    "i-stopped",
			Name:          "spoton",
			InstanceType:  "c7i.2xlarge",
			State:         "stopped",
			LaunchTime:    now.Add(-48 * time.Hour),
			PricingSource: "N/A",
		},
	}, now, 8*time.Hour)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "INSTANCE ID")
	assert.Contains(t, lines[1], "i-zombie")
	assert.Contains(t, lines[1], "9h")
	assert.Contains(t, lines[1], "$0.1234")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "yes"))
	assert.Contains(t, lines[2], "on-demand")
	assert.Contains(t, lines[2], "N/A")
	assert.False(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "yes"))
}

func TestPrintInstancesTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintInstancesTable(&buf, nil, now, time.Hour)
	assert.Equal(t, "No managed instances found.\n", buf.String())
}

func TestPrintVolumesTable(t *testing.T) {
	var buf bytes.Buffer
	PrintVolumesTable(&buf, []models.VolumeInfo{
		{VolumeID: "vol-1", Name: "spoton", VolumeType: "gp3", Size: 64, State: "available", EstimatedMonthlyCost: 5.12, PricingSource: "Default"},
		{VolumeID: "vol-2", Name: "spoton", VolumeType: "gp3", Size: 64, State: "in-use", Attachments: 1, EstimatedMonthlyCost: 5.12, PricingSource: "API"},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "vol-1")
	assert.Contains(t, out, "DEFAULT")
	assert.Contains(t, out, "128 GB")
	assert.Contains(t, out, "$10.24")
}

func TestPrintSnapshotsTable(t *testing.T) {
	var buf bytes.Buffer
	PrintSnapshotsTable(&buf, []models.SnapshotInfo{
		{SnapshotID: "snap-old", Size: 64, StartTime: now.Add(-48 * time.Hour), EstimatedMonthlyCost: 3.2, PricingSource: "Default"},
		{SnapshotID: "snap-new", Size: 64, StartTime: now.Add(-time.Hour), EstimatedMonthlyCost: 3.2, PricingSource: "Default"},
	}, "snap-new", now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[1], "64 GiB")
	assert.Contains(t, lines[1], "2 days ago")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "no"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "yes"))
	assert.Contains(t, lines[3], "$6.40")
}

func TestPrintCleanupReport(t *testing.T) {
	var buf bytes.Buffer
	PrintCleanupReport(&buf, models.CleanupReport{})
	assert.Equal(t, "Nothing to clean up.\n", buf.String())

	buf.Reset()
	PrintCleanupReport(&buf, models.CleanupReport{
		DeletedSnapshots:    []string{"snap-1", "snap-2"},
		TerminatedInstances: []string{"i-1"},
		KeptSnapshot:        "snap-3",
	})
	out := buf.String()
	assert.Contains(t, out, "snap-1,snap-2")
	assert.Contains(t, out, "terminate instance")
	assert.Contains(t, out, "Latest snapshot: snap-3")
	assert.NotContains(t, out, "delete volume")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, maxNameWidth, stringWidth(displayName("")))
	assert.Equal(t, "spoton"+strings.Repeat(" ", maxNameWidth-6), displayName("spoton"))

	long := displayName("a-very-long-workstation-name")
	assert.Equal(t, maxNameWidth, stringWidth(long))
	assert.True(t, strings.HasSuffix(long, ".."))

	korean := displayName("개발용워크스테이션인스턴스")
	assert.LessOrEqual(t, stringWidth(korean), maxNameWidth)
	assert.True(t, strings.HasSuffix(strings.TrimRight(korean, " "), ".."))
}

func TestGetPricingMarker(t *testing.T) {
	assert.Equal(t, "CACHE", GetPricingMarker("Cache"))
	assert.Equal(t, "DEFAULT", GetPricingMarker("Default"))
	assert.Equal(t, "-", GetPricingMarker(""))
}
