// Package inventory collects managed resources and annotates them with cost
// estimates for reporting.
package inventory

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/janitor"
	"github.com/younsl/spoton/pkg/pricing"
	"github.com/younsl/spoton/pkg/utils"
)

// Cloud is the read-only EC2 surface the inventory needs
type Cloud interface {
	Region() string
	ListInstances(ctx context.Context, states ...string) ([]models.InstanceInfo, error)
	ListVolumes(ctx context.Context, availableOnly bool) ([]models.VolumeInfo, error)
	ListSnapshots(ctx context.Context) ([]models.SnapshotInfo, error)
	SpotPrices(ctx context.Context, instanceType string, zones []string) ([]models.SpotPrice, error)
}

// Inventory is a point-in-time view of every managed resource
type Inventory struct {
	Instances    []models.InstanceInfo
	Volumes      []models.VolumeInfo
	Snapshots    []models.SnapshotInfo
	KeptSnapshot string
}

// MonthlyStorageCost is the estimated monthly cost of volumes and snapshots
func (inv Inventory) MonthlyStorageCost() float64 {
	var total float64
	for _, v := range inv.Volumes {
		total += v.EstimatedMonthlyCost
	}
	for _, s := range inv.Snapshots {
		total += s.EstimatedMonthlyCost
	}
	return total
}

// HourlyComputeCost is the current spot cost per hour of running instances
func (inv Inventory) HourlyComputeCost() float64 {
	var total float64
	for _, i := range inv.Instances {
		if i.IsRunning() {
			total += i.SpotHourly
		}
	}
	return total
}

// MonthlyComputeCost projects HourlyComputeCost over a month of uptime
func (inv Inventory) MonthlyComputeCost() float64 {
	return inv.HourlyComputeCost() * utils.GetMonthlyHours()
}

// Collect lists every managed resource and estimates its cost
func Collect(ctx context.Context, cloud Cloud, estimator *pricing.Estimator) (Inventory, error) {
	var inv Inventory
	var err error

	if inv.Instances, err = cloud.ListInstances(ctx); err != nil {
		return inv, err
	}
	if inv.Volumes, err = cloud.ListVolumes(ctx, false); err != nil {
		return inv, err
	}
	if inv.Snapshots, err = cloud.ListSnapshots(ctx); err != nil {
		return inv, err
	}
	if latest, ok := janitor.LatestSnapshot(inv.Snapshots); ok {
		inv.KeptSnapshot = latest.SnapshotID
	}

	region := cloud.Region()

	for i := range inv.Instances {
		instance := &inv.Instances[i]

		price, source := estimator.OnDemandHourly(ctx, instance.InstanceType, region)
		instance.OnDemandHourly = price
		instance.PricingSource = string(source)

		if !instance.IsRunning() || instance.AvailabilityZone == "" {
			continue
		}
		spot, err := currentSpotPrice(ctx, cloud, instance.InstanceType, instance.AvailabilityZone)
		if err != nil {
			log.WithError(err).WithField("instance", instance.InstanceID).Warn("spot price unavailable")
			continue
		}
		instance.SpotHourly = spot
	}

	for i := range inv.Volumes {
		volume := &inv.Volumes[i]
		cost, source := estimator.VolumeMonthlyCost(ctx, volume.VolumeType, volume.Size, region)
		volume.EstimatedMonthlyCost = cost
		volume.PricingSource = string(source)
	}

	for i := range inv.Snapshots {
		snapshot := &inv.Snapshots[i]
		cost, source := estimator.SnapshotMonthlyCost(snapshot.Size, region)
		snapshot.EstimatedMonthlyCost = cost
		snapshot.PricingSource = string(source)
	}

	return inv, nil
}

func currentSpotPrice(ctx context.Context, cloud Cloud, instanceType, zone string) (float64, error) {
	prices, err := cloud.SpotPrices(ctx, instanceType, []string{zone})
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w for %s in %s", pricing.ErrNoSpotPrice, instanceType, zone)
	}
	return prices[0].Price, nil
}
