package pricing

import (
	"github.com/dukerupert/configurator/internal/domain"
)

// ParametricResolver resolves formula-driven prices.
type ParametricResolver = Resolver[domain.ParametricPriceRequest, domain.ParametricPriceResult]

// BundleResolver resolves bundle totals.
type BundleResolver = Resolver[domain.BundlePriceRequest, domain.BundlePriceResult]

// ParametricValidator accepts a payload only when every range axis has a
// value within bounds, every discrete axis has a selection and the quantity
// is positive.
func ParametricValidator(axes []domain.VariantAxis) Validator[domain.ParametricPriceRequest] {
	return func(req domain.ParametricPriceRequest) bool {
		if req.Quantity < 1 {
			return false
		}
		for _, a := range axes {
			if a.IsDiscrete() {
				if req.Selections[a.AttributeCode] == "" {
					return false
				}
				continue
			}
			v, ok := req.Parameters[a.AttributeCode]
			if !ok || a.CheckValue(v) != "" {
				return false
			}
		}
		return true
	}
}

// NewParametricResolver wires a resolver to the backend parametric price call.
func NewParametricResolver(svc domain.PriceService, axes []domain.VariantAxis, cfg Config) *ParametricResolver {
	return New[domain.ParametricPriceRequest, domain.ParametricPriceResult](svc.CalculateParametricPrice, ParametricValidator(axes), cfg)
}

// NewBundleResolver wires a resolver to the backend bundle price call.
// valid is normally the bundle aggregator's submittability check.
func NewBundleResolver(svc domain.PriceService, valid Validator[domain.BundlePriceRequest], cfg Config) *BundleResolver {
	return New[domain.BundlePriceRequest, domain.BundlePriceResult](svc.CalculateBundlePrice, valid, cfg)
}
