package pricing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	log "github.com/sirupsen/logrus"
)

// VolumeMonthlyCost estimates the monthly cost of an EBS volume
func (e *Estimator) VolumeMonthlyCost(ctx context.Context, volumeType string, sizeGB int, region string) (float64, PricingSource) {
	cacheKey := fmt.Sprintf("ebs:%s:%s", volumeType, region)
	if price, ok := e.cached(cacheKey); ok {
		return float64(sizeGB) * price, PricingSourceCache
	}

	price, err := e.ebsPriceFromAPI(ctx, volumeType, region)
	if err == nil {
		e.store(cacheKey, price)
		return float64(sizeGB) * price, PricingSourceAPI
	}

	log.WithError(err).WithFields(log.Fields{
		"volumeType": volumeType,
		"region":     region,
	}).Debug("EBS price unavailable, using defaults")

	if price, ok := defaultEBSPrice(volumeType, region); ok {
		return float64(sizeGB) * price, PricingSourceDefault
	}
	return 0, PricingSourceNA
}

// SnapshotMonthlyCost estimates snapshot storage cost from the full volume size.
// Incremental snapshots usually cost less, so this is an upper bound.
func (e *Estimator) SnapshotMonthlyCost(sizeGB int, region string) (float64, PricingSource) {
	price, ok := DefaultSnapshotPrices[region]
	if !ok {
		price = DefaultSnapshotPrices["us-east-1"]
	}
	return float64(sizeGB) * price, PricingSourceDefault
}

func (e *Estimator) ebsPriceFromAPI(ctx context.Context, volumeType, region string) (float64, error) {
	filters := []types.Filter{
		termMatch("volumeType", mapVolumeTypeToAPIValue(volumeType)),
		termMatch("location", GetRegionDescriptiveName(region)),
		termMatch("productFamily", "Storage"),
		termMatch("regionCode", region),
	}

	products, err := e.getProducts(ctx, "AmazonEC2", filters, 100)
	if err != nil {
		return 0, err
	}

	// Find exact match for the volume type
	for _, product := range products {
		var priceData struct {
			Product struct {
				Attributes struct {
					VolumeAPIName string `json:"volumeApiName"`
				} `json:"attributes"`
			} `json:"product"`
		}
		if err := json.Unmarshal([]byte(product), &priceData); err != nil {
			continue
		}
		if priceData.Product.Attributes.VolumeAPIName == volumeType {
			return ExtractOnDemandPrice(product, "GB-Mo", "GB-month")
		}
	}

	return 0, fmt.Errorf("no exact match found for EBS volume type %s in region %s", volumeType, region)
}

func defaultEBSPrice(volumeType, region string) (float64, bool) {
	regionPrices, ok := DefaultEBSPrices[region]
	if !ok {
		regionPrices = DefaultEBSPrices["us-east-1"]
	}
	if price, ok := regionPrices[volumeType]; ok {
		return price, true
	}
	price, ok := regionPrices["gp2"]
	return price, ok
}

// mapVolumeTypeToAPIValue maps EBS volume types to their API filter values
func mapVolumeTypeToAPIValue(volumeType string) string {
	switch volumeType {
	case "gp2", "gp3":
		return "General Purpose"
	case "io1", "io2":
		return "Provisioned IOPS"
	case "st1":
		return "Throughput Optimized HDD"
	case "sc1":
		return "Cold HDD"
	case "standard":
		return "Magnetic"
	default:
		return "General Purpose"
	}
}
