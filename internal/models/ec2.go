package models

import "time"

// InstanceInfo represents a managed EC2 instance
type InstanceInfo struct {
	InstanceID       string
	Name             string
	InstanceType     string
	State            string
	Lifecycle        string // "spot" or "" for on-demand
	Region           string
	AvailabilityZone string
	SubnetID         string
	LaunchTime       time.Time
	OnDemandHourly   float64
	SpotHourly       float64
	PricingSource    string
}

// Uptime returns how long the instance has been running at now
func (i InstanceInfo) Uptime(now time.Time) time.Duration {
	if i.LaunchTime.IsZero() {
		return 0
	}
	return now.Sub(i.LaunchTime)
}

// IsRunning reports whether the instance is in the running state
func (i InstanceInfo) IsRunning() bool {
	return i.State == "running"
}

// LaunchedInstance is returned to the caller after a successful launch
type LaunchedInstance struct {
	InstanceID       string    `json:"instanceId"`
	ReservationID    string    `json:"reservationId"`
	InstanceType     string    `json:"instanceType"`
	State            string    `json:"state"`
	AvailabilityZone string    `json:"availabilityZone,omitempty"`
	SubnetID         string    `json:"subnetId,omitempty"`
	LaunchTime       time.Time `json:"launchTime"`
	RestoredFrom     string    `json:"restoredFrom,omitempty"`
}
