package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/younsl/spoton/internal/models"
)

// ErrNoSpotPrice is returned when no zone offers a spot price
var ErrNoSpotPrice = errors.New("no spot price available")

// ParseSpotPrice parses the decimal USD string the EC2 API returns
func ParseSpotPrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing spot price %q: %w", s, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative spot price %q", s)
	}
	return price, nil
}

// CheapestZone returns the entry with the lowest price. On equal prices the
// entry listed first wins.
func CheapestZone(prices []models.SpotPrice) (models.SpotPrice, error) {
	if len(prices) == 0 {
		return models.SpotPrice{}, ErrNoSpotPrice
	}
	return lo.MinBy(prices, func(a, b models.SpotPrice) bool {
		return a.Price < b.Price
	}), nil
}
