package models

// CleanupReport summarizes what one janitor run changed
type CleanupReport struct {
	SnapshottedVolumes  []string `json:"snapshottedVolumes,omitempty"`
	CreatedSnapshots    []string `json:"createdSnapshots,omitempty"`
	DeletedVolumes      []string `json:"deletedVolumes,omitempty"`
	KeptSnapshot        string   `json:"keptSnapshot,omitempty"`
	DeletedSnapshots    []string `json:"deletedSnapshots,omitempty"`
	TerminatedInstances []string `json:"terminatedInstances,omitempty"`
}

// Empty reports whether the run made no changes
func (r CleanupReport) Empty() bool {
	return len(r.CreatedSnapshots) == 0 &&
		len(r.DeletedVolumes) == 0 &&
		len(r.DeletedSnapshots) == 0 &&
		len(r.TerminatedInstances) == 0
}
