package models

import "time"

// VolumeInfo represents a managed EBS volume
type VolumeInfo struct {
	VolumeID             string
	Name                 string
	Size                 int
	VolumeType           string
	State                string
	Region               string
	AvailabilityZone     string
	CreationTime         time.Time
	Attachments          int
	EstimatedMonthlyCost float64
	PricingSource        string // "API", "Cache", or "Default"
}

// Unattached reports whether no instance holds the volume
func (v VolumeInfo) Unattached() bool {
	return v.Attachments == 0
}

// SnapshotInfo represents a managed EBS snapshot
type SnapshotInfo struct {
	SnapshotID           string
	VolumeID             string
	Description          string
	State                string
	Size                 int
	Region               string
	StartTime            time.Time
	EstimatedMonthlyCost float64
	PricingSource        string
}
