package pricing

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceDefault indicates pricing data came from hardcoded defaults
	PricingSourceDefault PricingSource = "Default"

	// PricingSourceNA indicates pricing data is not available
	PricingSourceNA PricingSource = "N/A"
)

// Default EBS volume prices in USD per GB-month
// These are fallback prices if Pricing API fails
var DefaultEBSPrices = map[string]map[string]float64{
	"us-east-1": { // US East (N. Virginia)
		"gp2":      0.10,
		"gp3":      0.08,
		"io1":      0.125,
		"io2":      0.125,
		"st1":      0.045,
		"sc1":      0.025,
		"standard": 0.05,
	},
	"ap-northeast-2": { // Asia Pacific (Seoul)
		"gp2":      0.114, // Seoul region is about 14% more expensive
		"gp3":      0.092,
		"io1":      0.142,
		"io2":      0.142,
		"st1":      0.051,
		"sc1":      0.029,
		"standard": 0.057,
	},
}

// Default EBS snapshot storage prices (standard tier) in USD per GB-month
var DefaultSnapshotPrices = map[string]float64{
	"us-east-1":      0.05,
	"ap-northeast-2": 0.05,
}
