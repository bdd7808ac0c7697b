package variant

import "github.com/dukerupert/configurator/internal/domain"

// MatchState distinguishes an unfinished selection from a finished one that
// leads nowhere.
type MatchState string

const (
	MatchIncomplete         MatchState = "incomplete"
	MatchMatched            MatchState = "matched"
	MatchInvalidCombination MatchState = "invalid_combination"

	// MatchUnverified is a complete selection with no local variant list to
	// check it against.
	MatchUnverified MatchState = "unverified"
)

// IsComplete reports whether every discrete axis has a non-empty value.
func IsComplete(selection map[string]string, axes []domain.VariantAxis) bool {
	for _, a := range axes {
		if a.IsDiscrete() && selection[a.AttributeCode] == "" {
			return false
		}
	}
	return true
}

// MatchVariant returns the variant whose axis values equal selection on every
// discrete axis, or nil. Partial matches are never returned. When both an
// active and an inactive variant match, the active one wins.
func MatchVariant(variants []domain.ProductVariant, selection map[string]string, axes []domain.VariantAxis) *domain.ProductVariant {
	if !IsComplete(selection, axes) {
		return nil
	}

	var fallback *domain.ProductVariant
	for i := range variants {
		v := &variants[i]
		if !matchesExactly(v.AxisValues, selection, axes) {
			continue
		}
		if v.IsActive() {
			return v
		}
		if fallback == nil {
			fallback = v
		}
	}
	return fallback
}

func matchesExactly(values, selection map[string]string, axes []domain.VariantAxis) bool {
	for _, a := range axes {
		if !a.IsDiscrete() {
			continue
		}
		if values[a.AttributeCode] != selection[a.AttributeCode] {
			return false
		}
	}
	return true
}

// Resolve combines IsComplete and MatchVariant into a single outcome.
func Resolve(variants []domain.ProductVariant, selection map[string]string, axes []domain.VariantAxis) (MatchState, *domain.ProductVariant) {
	if !IsComplete(selection, axes) {
		return MatchIncomplete, nil
	}
	if v := MatchVariant(variants, selection, axes); v != nil {
		return MatchMatched, v
	}
	return MatchInvalidCombination, nil
}

// FindBySKU looks a variant up by SKU for seeding a selection from a
// bookmarked URL.
func FindBySKU(variants []domain.ProductVariant, sku string) *domain.ProductVariant {
	if sku == "" {
		return nil
	}
	for i := range variants {
		if variants[i].SKU == sku {
			return &variants[i]
		}
	}
	return nil
}
