package models

import "time"

// SpotPrice is one spot price history entry for a zone
type SpotPrice struct {
	AvailabilityZone string
	InstanceType     string
	Price            float64
	Timestamp        time.Time
}

// Placement is one candidate location for a spot launch.
// Either SubnetID or AvailabilityZone is set.
type Placement struct {
	InstanceType     string
	SubnetID         string
	AvailabilityZone string
}

// String renders the placement for logs
func (p Placement) String() string {
	where := p.SubnetID
	if where == "" {
		where = p.AvailabilityZone
	}
	if where == "" {
		return p.InstanceType
	}
	return p.InstanceType + "@" + where
}
