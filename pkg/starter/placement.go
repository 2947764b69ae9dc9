package starter

import (
	"context"

	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/pricing"
)

// Placer yields launch candidates in the order they should be tried
type Placer interface {
	Candidates(ctx context.Context) ([]models.Placement, error)
}

// PriceSource returns current spot prices per zone
type PriceSource interface {
	SpotPrices(ctx context.Context, instanceType string, zones []string) ([]models.SpotPrice, error)
}

// CheapestZonePlacer picks the zone with the lowest current spot price for
// one instance type
type CheapestZonePlacer struct {
	prices       PriceSource
	instanceType string
	zones        []string
}

// NewCheapestZonePlacer creates a CheapestZonePlacer over the given zones
func NewCheapestZonePlacer(prices PriceSource, instanceType string, zones []string) *CheapestZonePlacer {
	return &CheapestZonePlacer{
		prices:       prices,
		instanceType: instanceType,
		zones:        zones,
	}
}

// Candidates returns exactly one placement in the cheapest zone
func (p *CheapestZonePlacer) Candidates(ctx context.Context) ([]models.Placement, error) {
	prices, err := p.prices.SpotPrices(ctx, p.instanceType, p.zones)
	if err != nil {
		return nil, err
	}

	cheapest, err := pricing.CheapestZone(prices)
	if err != nil {
		return nil, err
	}

	return []models.Placement{
		{
			InstanceType:     p.instanceType,
			AvailabilityZone: cheapest.AvailabilityZone,
		},
	}, nil
}

// FallbackPlacer tries every instance type in every subnet, instance types
// in the outer loop
type FallbackPlacer struct {
	InstanceTypes []string
	SubnetIDs     []string
}

// Candidates returns the instance type x subnet product
func (p *FallbackPlacer) Candidates(_ context.Context) ([]models.Placement, error) {
	candidates := make([]models.Placement, 0, len(p.InstanceTypes)*len(p.SubnetIDs))
	for _, instanceType := range p.InstanceTypes {
		for _, subnetID := range p.SubnetIDs {
			candidates = append(candidates, models.Placement{
				InstanceType: instanceType,
				SubnetID:     subnetID,
			})
		}
	}
	return candidates, nil
}
