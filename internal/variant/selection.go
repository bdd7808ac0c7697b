// Package variant narrows the choosable options of a variant-parent product
// and resolves complete selections to concrete variants.
//
// ComputeAvailable and MatchVariant are pure functions. Machine owns one
// shopper's partial selection and re-derives both after every mutation.
package variant

import "sort"

// Selection is the ephemeral choice state of one configurator.
// Options holds discrete axes (an empty string means cleared), Values holds
// range axes.
type Selection struct {
	Options map[string]string  `json:"options"`
	Values  map[string]float64 `json:"values"`
}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return Selection{
		Options: make(map[string]string),
		Values:  make(map[string]float64),
	}
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := NewSelection()
	for k, v := range s.Options {
		out.Options[k] = v
	}
	for k, v := range s.Values {
		out.Values[k] = v
	}
	return out
}

// Chosen returns the discrete entries that carry a non-empty option code.
func (s Selection) Chosen() map[string]string {
	out := make(map[string]string, len(s.Options))
	for k, v := range s.Options {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// IsEmpty reports whether no discrete option and no range value is set.
func (s Selection) IsEmpty() bool {
	return len(s.Chosen()) == 0 && len(s.Values) == 0
}

// OptionSet is a set of option codes.
type OptionSet map[string]struct{}

// Has reports whether code is in the set.
func (s OptionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in lexical order.
func (s OptionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (s OptionSet) add(code string) {
	s[code] = struct{}{}
}
