package pricing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	log "github.com/sirupsen/logrus"
)

// OnDemandHourly returns the Linux on-demand hourly price for an instance type
// and where the number came from
func (e *Estimator) OnDemandHourly(ctx context.Context, instanceType, region string) (float64, PricingSource) {
	cacheKey := fmt.Sprintf("ec2:%s:%s", region, instanceType)
	if price, ok := e.cached(cacheKey); ok {
		return price, PricingSourceCache
	}

	filters := []types.Filter{
		termMatch("instanceType", instanceType),
		termMatch("location", GetRegionDescriptiveName(region)),
		termMatch("operatingSystem", "Linux"),
		termMatch("tenancy", "Shared"),
		termMatch("preInstalledSw", "NA"),
		termMatch("capacitystatus", "Used"),
	}

	products, err := e.getProducts(ctx, "AmazonEC2", filters, 1)
	if err == nil {
		var price float64
		price, err = ExtractOnDemandPrice(products[0])
		if err == nil {
			e.store(cacheKey, price)
			return price, PricingSourceAPI
		}
	}

	log.WithError(err).WithFields(log.Fields{
		"instanceType": instanceType,
		"region":       region,
	}).Debug("on-demand price unavailable")
	return 0, PricingSourceNA
}
