// Package bundle validates the per-component choices of a bundle product and
// shapes them into backend price requests. It never computes prices.
package bundle

import (
	"fmt"

	"github.com/dukerupert/configurator/internal/domain"
)

// Line is the mutable choice for one component slot of one cart line.
type Line struct {
	ComponentID string
	Quantity    int
	Parameters  map[string]float64
	Selections  map[string]string
}

// Clone returns a deep copy.
func (l Line) Clone() Line {
	out := Line{ComponentID: l.ComponentID, Quantity: l.Quantity}
	if len(l.Parameters) > 0 {
		out.Parameters = make(map[string]float64, len(l.Parameters))
		for k, v := range l.Parameters {
			out.Parameters[k] = v
		}
	}
	if len(l.Selections) > 0 {
		out.Selections = make(map[string]string, len(l.Selections))
		for k, v := range l.Selections {
			out.Selections[k] = v
		}
	}
	return out
}

// Lines maps component slot id to its chosen line.
type Lines map[string]Line

// Aggregator works over a bundle's read-only component list.
type Aggregator struct {
	bundleID   string
	components []domain.BundleComponent
}

// NewAggregator creates an aggregator. Components are expected in display
// (sortOrder) order.
func NewAggregator(bundleID string, components []domain.BundleComponent) *Aggregator {
	return &Aggregator{bundleID: bundleID, components: components}
}

// Components returns the component slots.
func (a *Aggregator) Components() []domain.BundleComponent {
	return a.components
}

// DefaultLines returns each component at its default quantity with its
// default parameters and selections.
func (a *Aggregator) DefaultLines() Lines {
	lines := make(Lines, len(a.components))
	for _, c := range a.components {
		lines[c.ID] = Line{
			ComponentID: c.ID,
			Quantity:    c.Quantity,
			Parameters:  c.DefaultParameters,
			Selections:  c.DefaultSelections,
		}.Clone()
	}
	return lines
}

// line returns the chosen line for c, falling back to the default quantity.
func (a *Aggregator) line(lines Lines, c domain.BundleComponent) Line {
	if l, ok := lines[c.ID]; ok {
		return l
	}
	return Line{ComponentID: c.ID, Quantity: c.Quantity}
}

// Validate checks every component's quantity bounds and returns the errors
// keyed by component id. Each component is checked independently. An empty
// map means the bundle is submittable.
func (a *Aggregator) Validate(lines Lines) map[string]string {
	errs := make(map[string]string)
	for _, c := range a.components {
		if msg := checkQuantity(c, a.line(lines, c).Quantity); msg != "" {
			errs[c.ID] = msg
		}
	}
	return errs
}

func checkQuantity(c domain.BundleComponent, qty int) string {
	switch {
	case qty < 0:
		return "quantity must not be negative"
	case c.MinQuantity != nil && qty < *c.MinQuantity:
		return fmt.Sprintf("quantity must be at least %d", *c.MinQuantity)
	case c.MaxQuantity != nil && qty > *c.MaxQuantity:
		return fmt.Sprintf("quantity must be at most %d", *c.MaxQuantity)
	}
	return ""
}

// InputErrors checks the nested inputs of every parametric component that is
// part of the request (positive quantity). Keys are "<componentId>.<axis>".
func (a *Aggregator) InputErrors(lines Lines) map[string]string {
	errs := make(map[string]string)
	for _, c := range a.components {
		l := a.line(lines, c)
		if !c.IsParametric() || l.Quantity <= 0 {
			continue
		}
		for _, axis := range c.Axes {
			if msg := checkInput(axis, l); msg != "" {
				errs[c.ID+"."+axis.AttributeCode] = msg
			}
		}
	}
	return errs
}

func checkInput(axis domain.VariantAxis, l Line) string {
	if axis.IsDiscrete() {
		v := l.Selections[axis.AttributeCode]
		switch {
		case v == "":
			return "a choice is required"
		case !axis.HasOption(v):
			return "unknown option " + v
		}
		return ""
	}
	v, ok := l.Parameters[axis.AttributeCode]
	if !ok {
		return "a value is required"
	}
	return axis.CheckValue(v)
}

// Err returns the validation failures as a domain validation error, or nil.
func (a *Aggregator) Err(lines Lines) error {
	return domain.ValidationErrors("bundle.validate", a.Validate(lines))
}

// Submittable reports whether the bundle passes validation.
func (a *Aggregator) Submittable(lines Lines) bool {
	return len(a.Validate(lines)) == 0
}

// BuildRequest emits one line per component with a positive quantity, in
// component order. A component at quantity zero is left out of the bundle
// entirely rather than sent as a zero line. Nested parameters and
// selections are only included when non-empty.
func (a *Aggregator) BuildRequest(lines Lines) domain.BundlePriceRequest {
	req := domain.BundlePriceRequest{
		BundleProductID: a.bundleID,
		Components:      make([]domain.BundlePriceLine, 0, len(a.components)),
	}
	for _, c := range a.components {
		l := a.line(lines, c).Clone()
		if l.Quantity <= 0 {
			continue
		}
		pl := domain.BundlePriceLine{ComponentID: c.ID, Quantity: l.Quantity}
		if len(l.Parameters) > 0 {
			pl.Parameters = l.Parameters
		}
		if len(l.Selections) > 0 {
			pl.Selections = l.Selections
		}
		req.Components = append(req.Components, pl)
	}
	return req
}

// LinesFromRequest recovers the chosen lines from a price request.
// Components absent from the request were left out at quantity zero.
func (a *Aggregator) LinesFromRequest(req domain.BundlePriceRequest) Lines {
	lines := make(Lines, len(a.components))
	for _, c := range a.components {
		lines[c.ID] = Line{ComponentID: c.ID}
	}
	for _, pl := range req.Components {
		lines[pl.ComponentID] = Line{
			ComponentID: pl.ComponentID,
			Quantity:    pl.Quantity,
			Parameters:  pl.Parameters,
			Selections:  pl.Selections,
		}
	}
	return lines
}

// RequestValid reports whether req describes a submittable bundle: every
// quantity within bounds and every nested parametric input present and
// within bounds. It is the validity predicate of the bundle price resolver.
func (a *Aggregator) RequestValid(req domain.BundlePriceRequest) bool {
	lines := a.LinesFromRequest(req)
	return a.Submittable(lines) && len(a.InputErrors(lines)) == 0
}

// ComponentSummary pairs a component slot with its priced line, if the
// backend returned one.
type ComponentSummary struct {
	Component domain.BundleComponent
	Quantity  int
	Price     *domain.BundleComponentPrice
}

// Summarize matches the backend's per-component prices to the component
// list by component id.
func (a *Aggregator) Summarize(lines Lines, result *domain.BundlePriceResult) []ComponentSummary {
	priced := make(map[string]*domain.BundleComponentPrice)
	if result != nil {
		for i := range result.Components {
			p := &result.Components[i]
			priced[p.ComponentID] = p
		}
	}

	out := make([]ComponentSummary, 0, len(a.components))
	for _, c := range a.components {
		out = append(out, ComponentSummary{
			Component: c,
			Quantity:  a.line(lines, c).Quantity,
			Price:     priced[c.ID],
		})
	}
	return out
}

// ConfigurationLines converts the chosen lines into cart configuration
// lines, skipping components with no quantity.
func (a *Aggregator) ConfigurationLines(lines Lines) []domain.BundleLineConfiguration {
	req := a.BuildRequest(lines)
	out := make([]domain.BundleLineConfiguration, 0, len(req.Components))
	for _, pl := range req.Components {
		out = append(out, domain.BundleLineConfiguration{
			ComponentID: pl.ComponentID,
			Quantity:    pl.Quantity,
			Parameters:  pl.Parameters,
			Selections:  pl.Selections,
		})
	}
	return out
}
