package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/dukerupert/configurator/internal/domain"
)

// ApplicableScale returns the tier with the greatest MinQuantity not
// exceeding quantity. Scales need not be sorted.
func ApplicableScale(scales []domain.PriceScale, quantity int) (domain.PriceScale, bool) {
	var (
		best  domain.PriceScale
		found bool
	)
	for _, s := range scales {
		if s.MinQuantity > quantity {
			continue
		}
		if !found || s.MinQuantity > best.MinQuantity {
			best = s
			found = true
		}
	}
	return best, found
}

// UnitPrice returns the per-unit price for quantity: the applicable tier,
// else the matched variant's price, else the product base price.
func UnitPrice(p *domain.ProductConfiguration, v *domain.ProductVariant, quantity int) decimal.Decimal {
	if s, ok := ApplicableScale(p.PriceScales, quantity); ok {
		return s.Price
	}
	if v != nil && v.Price.Valid {
		return v.Price.Decimal
	}
	return p.BasePrice
}

// LineTotal multiplies UnitPrice by quantity.
func LineTotal(p *domain.ProductConfiguration, v *domain.ProductVariant, quantity int) decimal.Decimal {
	return UnitPrice(p, v, quantity).Mul(decimal.NewFromInt(int64(quantity)))
}
