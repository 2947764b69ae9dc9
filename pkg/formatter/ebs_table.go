package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/utils"
)

// PrintVolumesTable prints managed EBS volumes with their monthly cost
func PrintVolumesTable(w io.Writer, volumes []models.VolumeInfo, now time.Time) {
	if len(volumes) == 0 {
		fmt.Fprintln(w, "No managed EBS volumes found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tVOLUME ID\tTYPE\tSIZE\tSTATUS\tATTACHED\tCREATED\tCOST/MO\tPRICING")

	totalSize := 0
	var totalCost float64
	for _, volume := range volumes {
		attached := "no"
		if !volume.Unattached() {
			attached = "yes"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d GB\t%s\t%s\t%s\t%s\t%s\n",
			displayName(volume.Name),
			volume.VolumeID,
			volume.VolumeType,
			volume.Size,
			volume.State,
			attached,
			utils.FormatAge(volume.CreationTime, now),
			formatCost(volume.EstimatedMonthlyCost, volume.PricingSource),
			GetPricingMarker(volume.PricingSource),
		)

		totalSize += volume.Size
		totalCost += volume.EstimatedMonthlyCost
	}

	fmt.Fprintf(tw, "Total:\t\t\t%d GB\t\t\t\t$%.2f\t\n", totalSize, totalCost)
	tw.Flush()
}

// PrintSnapshotsTable prints managed snapshots, marking the one cleanup keeps
func PrintSnapshotsTable(w io.Writer, snapshots []models.SnapshotInfo, keep string, now time.Time) {
	if len(snapshots) == 0 {
		fmt.Fprintln(w, "No managed snapshots found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "SNAPSHOT ID\tVOLUME ID\tSIZE\tSTATE\tSTARTED\tCOST/MO\tPRICING\tRETAINED")

	var totalCost float64
	for _, snapshot := range snapshots {
		retained := "no"
		if snapshot.SnapshotID == keep {
			retained = "yes"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			snapshot.SnapshotID,
			snapshot.VolumeID,
			humanize.IBytes(uint64(snapshot.Size)*humanize.GiByte),
			snapshot.State,
			utils.FormatAge(snapshot.StartTime, now),
			formatCost(snapshot.EstimatedMonthlyCost, snapshot.PricingSource),
			GetPricingMarker(snapshot.PricingSource),
			retained,
		)
		totalCost += snapshot.EstimatedMonthlyCost
	}

	fmt.Fprintf(tw, "Total:\t\t\t\t\t$%.2f\t\t\n", totalCost)
	tw.Flush()
}
