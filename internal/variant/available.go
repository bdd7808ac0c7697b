package variant

import "github.com/dukerupert/configurator/internal/domain"

// ComputeAvailable returns, for every discrete axis, the option codes that
// remain reachable given the other axes' current choices.
//
// An axis never filters on its own value, so a shopper can always switch
// between sibling options. Only active variants contribute. With no variants
// at all the result is nil, meaning "no constraint data".
func ComputeAvailable(variants []domain.ProductVariant, selection map[string]string, axes []domain.VariantAxis) map[string]OptionSet {
	if len(variants) == 0 {
		return nil
	}

	out := make(map[string]OptionSet, len(axes))
	for _, axis := range axes {
		if !axis.IsDiscrete() {
			continue
		}
		code := axis.AttributeCode
		set := make(OptionSet)

		for _, v := range variants {
			if !v.IsActive() {
				continue
			}
			if !agreesExcept(v.AxisValues, selection, code) {
				continue
			}
			if value := v.AxisValues[code]; value != "" {
				set.add(value)
			}
		}
		out[code] = set
	}
	return out
}

// agreesExcept reports whether values matches every non-empty entry of
// selection other than the one for skip.
func agreesExcept(values, selection map[string]string, skip string) bool {
	for code, want := range selection {
		if code == skip || want == "" {
			continue
		}
		if values[code] != want {
			return false
		}
	}
	return true
}

// Source tags where an Availability came from.
type Source string

const (
	// SourceLocal means availability was computed from the loaded variant list.
	SourceLocal Source = "local"
	// SourceServer means the backend's precomputed availability was used.
	SourceServer Source = "server"
	// SourceUnconstrained means no data exists and every option is choosable.
	SourceUnconstrained Source = "unconstrained"
)

// Availability is the per-axis option set together with its source.
type Availability struct {
	Source  Source               `json:"source"`
	Options map[string]OptionSet `json:"-"`
}

// IsAvailable reports whether code may be chosen on axis.
// Axes without data are treated as unconstrained.
func (a Availability) IsAvailable(axis, code string) bool {
	if a.Source == SourceUnconstrained {
		return true
	}
	set, ok := a.Options[axis]
	if !ok {
		return true
	}
	return set.Has(code)
}

// ResolveAvailability applies the precedence local variants, then server
// availability, then unconstrained. The server map is a fallback only and is
// never merged with locally computed sets.
func ResolveAvailability(variants []domain.ProductVariant, selection map[string]string, axes []domain.VariantAxis, server map[string][]domain.AxisOption) Availability {
	if local := ComputeAvailable(variants, selection, axes); local != nil {
		return Availability{Source: SourceLocal, Options: local}
	}
	if server != nil {
		opts := make(map[string]OptionSet, len(server))
		for code, options := range server {
			set := make(OptionSet, len(options))
			for _, o := range options {
				set.add(o.Code)
			}
			opts[code] = set
		}
		return Availability{Source: SourceServer, Options: opts}
	}
	return Availability{Source: SourceUnconstrained}
}
