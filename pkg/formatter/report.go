package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/younsl/spoton/internal/models"
)

// PrintCleanupReport prints what a cleanup run changed
func PrintCleanupReport(w io.Writer, report models.CleanupReport) {
	if report.Empty() {
		fmt.Fprintln(w, "Nothing to clean up.")
		if report.KeptSnapshot != "" {
			fmt.Fprintf(w, "Latest snapshot: %s\n", report.KeptSnapshot)
		}
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ACTION\tCOUNT\tRESOURCES")
	rows := []struct {
		action string
		ids    []string
	}{
		{"snapshot volume", report.SnapshottedVolumes},
		{"create snapshot", report.CreatedSnapshots},
		{"delete volume", report.DeletedVolumes},
		{"delete snapshot", report.DeletedSnapshots},
		{"terminate instance", report.TerminatedInstances},
	}
	for _, row := range rows {
		if len(row.ids) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", row.action, len(row.ids), strings.Join(row.ids, ","))
	}
	tw.Flush()

	if report.KeptSnapshot != "" {
		fmt.Fprintf(w, "Latest snapshot: %s\n", report.KeptSnapshot)
	}
}

// PrintPermissions prints the IAM actions each unit needs
func PrintPermissions(w io.Writer, permissions map[string][]string, order []string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "UNIT\tACTION")
	for _, unit := range order {
		for _, action := range permissions[unit] {
			fmt.Fprintf(tw, "%s\t%s\n", unit, action)
		}
	}
	tw.Flush()
}
