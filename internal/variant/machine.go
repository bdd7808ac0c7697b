package variant

import (
	"net/url"

	"github.com/dukerupert/configurator/internal/domain"
)

// State is the selection lifecycle of a configurator.
type State string

const (
	StateEmpty           State = "empty"
	StatePartial         State = "partial"
	StateCompleteValid   State = "complete_valid"
	StateCompleteInvalid State = "complete_invalid"
)

// Machine owns one partial selection over a product's axes. Every mutation
// replaces exactly one entry (ResetAll excepted) and then re-derives
// availability and match state synchronously.
//
// Machine never clears a sibling axis because the new selection made its
// value unreachable; that value stays selected and is reported unavailable.
//
// Machine is not safe for concurrent use. Callers serialize access.
type Machine struct {
	axes     []domain.VariantAxis
	variants []domain.ProductVariant

	selection   Selection
	rangeErrors map[string]string
	server      map[string][]domain.AxisOption

	available Availability
	match     MatchState
	matched   *domain.ProductVariant
	state     State
}

// NewMachine returns an empty machine for the product's axes and variants.
func NewMachine(axes []domain.VariantAxis, variants []domain.ProductVariant) *Machine {
	m := &Machine{
		axes:        axes,
		variants:    variants,
		selection:   NewSelection(),
		rangeErrors: make(map[string]string),
	}
	m.derive()
	return m
}

// SetAxis replaces the value of one discrete axis. An empty value clears it.
// Returns whether the selection changed.
func (m *Machine) SetAxis(code, value string) (bool, error) {
	const op = "variant.set_axis"

	axis, ok := m.axis(code)
	if !ok {
		return false, domain.WrapError(domain.ErrUnknownAxis, domain.EINVALID, op, "unknown axis: "+code)
	}
	if !axis.IsDiscrete() {
		return false, domain.WrapError(domain.ErrNotDiscreteAxis, domain.EINVALID, op, "axis "+code+" takes a numeric value")
	}
	if value != "" && !axis.HasOption(value) {
		return false, domain.WrapError(domain.ErrUnknownOption, domain.EINVALID, op, "unknown option "+value+" for axis "+code)
	}

	if m.selection.Options[code] == value {
		return false, nil
	}
	if value == "" {
		delete(m.selection.Options, code)
	} else {
		m.selection.Options[code] = value
	}
	m.derive()
	return true, nil
}

// SetValue sets a range axis. Out-of-bounds values are kept and recorded as
// a field error for that axis; they are not returned as an error.
func (m *Machine) SetValue(code string, value float64) (bool, error) {
	const op = "variant.set_value"

	axis, ok := m.axis(code)
	if !ok {
		return false, domain.WrapError(domain.ErrUnknownAxis, domain.EINVALID, op, "unknown axis: "+code)
	}
	if axis.IsDiscrete() {
		return false, domain.WrapError(domain.ErrNotRangeAxis, domain.EINVALID, op, "axis "+code+" takes an option code")
	}

	if old, set := m.selection.Values[code]; set && old == value {
		return false, nil
	}
	m.selection.Values[code] = value
	if msg := axis.CheckValue(value); msg != "" {
		m.rangeErrors[code] = msg
	} else {
		delete(m.rangeErrors, code)
	}
	m.derive()
	return true, nil
}

// ClearValue removes a range axis value.
func (m *Machine) ClearValue(code string) bool {
	if _, set := m.selection.Values[code]; !set {
		return false
	}
	delete(m.selection.Values, code)
	delete(m.rangeErrors, code)
	m.derive()
	return true
}

// ResetAll clears every axis in one step. It is the only multi-axis mutation.
func (m *Machine) ResetAll() bool {
	if m.selection.IsEmpty() {
		return false
	}
	m.selection = NewSelection()
	m.rangeErrors = make(map[string]string)
	m.derive()
	return true
}

// Seed replaces the selection with the axis values of the variant with the
// given SKU. Returns false when no such variant exists.
func (m *Machine) Seed(sku string) bool {
	v := FindBySKU(m.variants, sku)
	if v == nil {
		return false
	}
	sel := NewSelection()
	for _, a := range m.axes {
		if !a.IsDiscrete() {
			continue
		}
		if code := v.AxisValues[a.AttributeCode]; code != "" {
			sel.Options[a.AttributeCode] = code
		}
	}
	m.selection = sel
	m.rangeErrors = make(map[string]string)
	m.derive()
	return true
}

// SetServerAvailability installs backend-provided availability. It is only
// consulted when no local variant list exists.
func (m *Machine) SetServerAvailability(available map[string][]domain.AxisOption) {
	m.server = available
	m.derive()
}

// HasLocalVariants reports whether availability is computed locally.
func (m *Machine) HasLocalVariants() bool {
	return len(m.variants) > 0
}

func (m *Machine) derive() {
	chosen := m.selection.Chosen()
	m.available = ResolveAvailability(m.variants, chosen, m.axes, m.server)
	m.match, m.matched = Resolve(m.variants, chosen, m.axes)

	switch {
	case m.match == MatchIncomplete:
	case !m.hasDiscreteAxes() && !m.rangeComplete():
		m.match = MatchIncomplete
	case m.match == MatchInvalidCombination && (!m.HasLocalVariants() || !m.hasDiscreteAxes()):
		// Nothing to match against locally; the backend confirms on request.
		m.match = MatchUnverified
	}

	switch {
	case len(m.axes) > 0 && m.selection.IsEmpty():
		m.state = StateEmpty
	case m.match == MatchIncomplete:
		m.state = StatePartial
	case m.match == MatchInvalidCombination:
		m.state = StateCompleteInvalid
	default:
		m.state = StateCompleteValid
	}
}

// rangeComplete reports whether every range axis has a value.
func (m *Machine) rangeComplete() bool {
	for _, a := range m.axes {
		if a.IsDiscrete() {
			continue
		}
		if _, ok := m.selection.Values[a.AttributeCode]; !ok {
			return false
		}
	}
	return true
}

func (m *Machine) axis(code string) (domain.VariantAxis, bool) {
	for _, a := range m.axes {
		if a.AttributeCode == code {
			return a, true
		}
	}
	return domain.VariantAxis{}, false
}

func (m *Machine) hasDiscreteAxes() bool {
	for _, a := range m.axes {
		if a.IsDiscrete() {
			return true
		}
	}
	return false
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Match returns the pure match outcome behind State.
func (m *Machine) Match() MatchState { return m.match }

// Selection returns a copy of the current selection.
func (m *Machine) Selection() Selection { return m.selection.Clone() }

// Available returns the current availability.
func (m *Machine) Available() Availability { return m.available }

// Matched returns a copy of the matched variant, or nil.
func (m *Machine) Matched() *domain.ProductVariant {
	if m.matched == nil {
		return nil
	}
	v := *m.matched
	return &v
}

// RangeErrors returns a copy of the per-axis range errors.
func (m *Machine) RangeErrors() map[string]string {
	out := make(map[string]string, len(m.rangeErrors))
	for k, v := range m.rangeErrors {
		out[k] = v
	}
	return out
}

// VariantQuery returns "variant=<sku>" once an active variant is matched,
// for reflecting the configuration into a shareable URL.
func (m *Machine) VariantQuery() string {
	if m.state != StateCompleteValid || m.matched == nil || !m.matched.IsActive() {
		return ""
	}
	return url.Values{"variant": {m.matched.SKU}}.Encode()
}
