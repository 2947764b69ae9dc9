package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/younsl/spoton/pkg/utils"
)

// The AWS Pricing API is only available in us-east-1 and ap-south-1
const pricingRegion = "us-east-1"

// apiTimeout bounds a single GetProducts call
const apiTimeout = 5 * time.Second

// ProductsAPI is the part of the Pricing API client the estimator uses
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Estimator looks up on-demand prices and caches them per process
type Estimator struct {
	client ProductsAPI

	mu    sync.RWMutex
	cache map[string]float64
}

// NewEstimator creates an Estimator backed by the AWS Pricing API
func NewEstimator(ctx context.Context) (*Estimator, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(pricingRegion))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config for pricing API: %w", err)
	}
	return NewEstimatorFromAPI(pricing.NewFromConfig(cfg)), nil
}

// NewEstimatorFromAPI creates an Estimator over an existing client.
// A nil client makes every lookup fall back to defaults.
func NewEstimatorFromAPI(client ProductsAPI) *Estimator {
	return &Estimator{
		client: client,
		cache:  make(map[string]float64),
	}
}

func (e *Estimator) cached(key string) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	price, ok := e.cache[key]
	return price, ok
}

func (e *Estimator) store(key string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key] = price
}

// getProducts fetches up to maxResults price list entries for the filters
func (e *Estimator) getProducts(ctx context.Context, serviceCode string, filters []types.Filter, maxResults int32) ([]string, error) {
	if e.client == nil {
		return nil, fmt.Errorf("AWS pricing client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	resp, err := e.client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(maxResults),
	})
	if err != nil {
		return nil, fmt.Errorf("error calling AWS Pricing API: %w", err)
	}
	if len(resp.PriceList) == 0 {
		return nil, fmt.Errorf("no pricing found for %s", serviceCode)
	}
	return resp.PriceList, nil
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}

// GetRegionDescriptiveName returns the human-readable region name used in AWS Pricing API
func GetRegionDescriptiveName(region string) string {
	return utils.GetRegionDescriptiveName(region)
}
