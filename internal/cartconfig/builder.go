// Package cartconfig packages a finished configurator state into the
// configuration payload consumed by the cart subsystem.
package cartconfig

import (
	"github.com/dukerupert/configurator/internal/domain"
)

// Input is the final state of a configurator.
type Input struct {
	Selections  map[string]string
	Parameters  map[string]float64
	BundleLines []domain.BundleLineConfiguration
}

// Build returns the cart configuration for in. Sub-structures with no
// entries are left nil so they are omitted from the payload entirely.
func Build(in Input) domain.CartConfiguration {
	var cfg domain.CartConfiguration

	if sel := nonEmptySelections(in.Selections); len(sel) > 0 {
		cfg.Selections = sel
	}
	if len(in.Parameters) > 0 {
		cfg.Parameters = copyParameters(in.Parameters)
	}
	if len(in.BundleLines) > 0 {
		cfg.BundleComponents = make([]domain.BundleLineConfiguration, 0, len(in.BundleLines))
		for _, l := range in.BundleLines {
			cfg.BundleComponents = append(cfg.BundleComponents, buildLine(l))
		}
	}
	return cfg
}

func buildLine(l domain.BundleLineConfiguration) domain.BundleLineConfiguration {
	out := domain.BundleLineConfiguration{ComponentID: l.ComponentID, Quantity: l.Quantity}
	if len(l.Parameters) > 0 {
		out.Parameters = copyParameters(l.Parameters)
	}
	if sel := nonEmptySelections(l.Selections); len(sel) > 0 {
		out.Selections = sel
	}
	return out
}

// BuildLine assembles a complete cart line.
func BuildLine(productID string, v *domain.ProductVariant, quantity int, in Input) (domain.CartLine, error) {
	if quantity < 1 {
		return domain.CartLine{}, domain.Invalid("cartconfig.build_line", "quantity must be at least 1")
	}
	line := domain.CartLine{
		ProductID:     productID,
		Quantity:      quantity,
		Configuration: Build(in),
	}
	if v != nil {
		line.VariantID = v.ID
		line.SKU = v.SKU
	}
	return line, nil
}

func nonEmptySelections(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}

func copyParameters(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
