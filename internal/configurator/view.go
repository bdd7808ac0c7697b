package configurator

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/configurator/internal/domain"
	"github.com/dukerupert/configurator/internal/pricing"
	"github.com/dukerupert/configurator/internal/variant"
)

// View is a render-ready snapshot of a session. Every state a UI must
// distinguish (incomplete, invalid combination, per-field errors, pending
// price, transport error) is a value here, never an error.
type View struct {
	SessionID          string                 `json:"sessionId"`
	ProductID          string                 `json:"productId"`
	Slug               string                 `json:"slug,omitempty"`
	Name               string                 `json:"name,omitempty"`
	Kind               domain.ProductKind     `json:"kind"`
	State              variant.State          `json:"state"`
	Axes               []AxisView             `json:"axes"`
	AvailabilitySource variant.Source         `json:"availabilitySource"`
	AvailabilityError  string                 `json:"availabilityError,omitempty"`
	Variant            *domain.ProductVariant `json:"variant,omitempty"`
	Purchasable        bool                   `json:"purchasable"`
	ConfirmedVariant   *domain.ProductVariant `json:"confirmedVariant,omitempty"`
	VariantQuery       string                 `json:"variantQuery,omitempty"`
	Quantity           int                    `json:"quantity"`
	Errors             map[string]string      `json:"errors,omitempty"`
	Components         []ComponentView        `json:"components,omitempty"`
	Price              PriceView              `json:"price"`
}

// AxisView renders one axis with its options or range value.
type AxisView struct {
	Code      string               `json:"code"`
	Label     domain.LocalizedText `json:"label,omitempty"`
	InputType domain.AxisInputType `json:"inputType"`
	Selected  string               `json:"selected,omitempty"`
	Options   []OptionView         `json:"options,omitempty"`
	Value     *float64             `json:"value,omitempty"`
	Min       float64              `json:"min,omitempty"`
	Max       float64              `json:"max,omitempty"`
	Step      float64              `json:"step,omitempty"`
	Unit      string               `json:"unit,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// OptionView is one option of a discrete axis. A selected option may be
// unavailable; the UI shows it disabled rather than clearing it.
type OptionView struct {
	Code      string               `json:"code"`
	Label     domain.LocalizedText `json:"label,omitempty"`
	Available bool                 `json:"available"`
	Selected  bool                 `json:"selected"`
}

// ComponentView renders one bundle slot.
type ComponentView struct {
	ID                 string             `json:"id"`
	ComponentProductID string             `json:"componentProductId"`
	Name               string             `json:"name,omitempty"`
	Quantity           int                `json:"quantity"`
	MinQuantity        *int               `json:"minQuantity,omitempty"`
	MaxQuantity        *int               `json:"maxQuantity,omitempty"`
	Parameters         map[string]float64 `json:"parameters,omitempty"`
	Selections         map[string]string  `json:"selections,omitempty"`
	Axes               []AxisView         `json:"axes,omitempty"`
	Error              string             `json:"error,omitempty"`
}

// PriceView is the display price. Totals come from the backend for
// parametric and bundle products and from the catalog otherwise.
type PriceView struct {
	Status     pricing.Status             `json:"status"`
	Currency   string                     `json:"currency,omitempty"`
	UnitPrice  *decimal.Decimal           `json:"unitPrice,omitempty"`
	Total      *decimal.Decimal           `json:"total,omitempty"`
	SKU        string                     `json:"sku,omitempty"`
	Breakdown  map[string]json.RawMessage `json:"breakdown,omitempty"`
	Error      string                     `json:"error,omitempty"`
	Components []ComponentPrice           `json:"components,omitempty"`
}

// ComponentPrice is the priced line of one bundle slot.
type ComponentPrice struct {
	ComponentID string           `json:"componentId"`
	SKU         string           `json:"sku,omitempty"`
	Quantity    int              `json:"quantity"`
	LineTotal   *decimal.Decimal `json:"lineTotal,omitempty"`
	Parametric  *PriceView       `json:"parametric,omitempty"`
}

// View returns a snapshot of the session.
func (s *Session) View() (View, error) {
	if err := s.lock("configurator.view"); err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	v := View{
		SessionID:          s.id,
		ProductID:          s.product.ID,
		Slug:               s.product.Slug,
		Name:               s.product.Name,
		Kind:               s.product.Kind,
		State:              s.machine.State(),
		Axes:               axisViews(s.machine, s.product.Axes),
		AvailabilitySource: s.machine.Available().Source,
		Variant:            s.machine.Matched(),
		VariantQuery:       s.machine.VariantQuery(),
		Quantity:           s.quantity,
		Price:              s.priceView(),
	}
	if s.availabilityErr != nil {
		v.AvailabilityError = domain.ErrorMessage(s.availabilityErr)
	}
	if v.Variant != nil {
		v.Purchasable = v.Variant.Purchasable()
	}
	if s.confirmed != nil {
		c := *s.confirmed
		v.ConfirmedVariant = &c
	}
	if errs := s.machine.RangeErrors(); len(errs) > 0 {
		v.Errors = errs
	}
	if s.aggregator != nil {
		v.Components = s.componentViews()
	}
	return v, nil
}

// Price returns the current price. With wait it first blocks until every
// resolver of the session has left pending, or ctx is done, whichever
// comes first; an expired ctx simply yields the still-pending price.
func (s *Session) Price(ctx context.Context, wait bool) (PriceView, error) {
	const op = "configurator.price"
	if wait {
		if err := s.lock(op); err != nil {
			return PriceView{}, err
		}
		var waiters []func(context.Context) error
		if s.parametric != nil {
			waiters = append(waiters, awaiter(s.parametric))
		}
		if s.bundlePrice != nil {
			waiters = append(waiters, awaiter(s.bundlePrice))
		}
		for _, comp := range s.components {
			waiters = append(waiters, awaiter(comp.resolver))
		}
		s.mu.Unlock()

		for _, w := range waiters {
			if w(ctx) != nil {
				break
			}
		}
	}

	if err := s.lock(op); err != nil {
		return PriceView{}, err
	}
	defer s.mu.Unlock()
	return s.priceView(), nil
}

func awaiter[Req, Resp any](r *pricing.Resolver[Req, Resp]) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.Await(ctx)
		return err
	}
}

// priceView assembles the display price. Caller holds mu.
func (s *Session) priceView() PriceView {
	switch s.product.Kind {
	case domain.ProductKindParametric:
		pv := parametricView(s.parametric.Result())
		pv.Currency = s.product.Currency
		return pv

	case domain.ProductKindBundle:
		res := s.bundlePrice.Result()
		pv := PriceView{Status: res.Status, Currency: s.product.Currency}
		if res.Err != nil {
			pv.Error = domain.ErrorMessage(res.Err)
		}
		if res.Value != nil {
			total := res.Value.Total
			pv.Total = &total
		}
		for _, sum := range s.aggregator.Summarize(s.lines, res.Value) {
			cp := ComponentPrice{ComponentID: sum.Component.ID, Quantity: sum.Quantity}
			if sum.Price != nil {
				lt := sum.Price.LineTotal
				cp.SKU = sum.Price.SKU
				cp.LineTotal = &lt
			}
			if comp, ok := s.components[sum.Component.ID]; ok {
				nested := parametricView(comp.resolver.Result())
				cp.Parametric = &nested
			}
			pv.Components = append(pv.Components, cp)
		}
		return pv
	}

	pv := PriceView{Status: pricing.StatusSettled, Currency: s.product.Currency}
	v := s.machine.Matched()
	if v == nil {
		v = s.confirmed
	}
	if v == nil && s.product.Kind == domain.ProductKindVariantParent {
		return pv
	}
	unit := pricing.UnitPrice(s.product, v, s.quantity)
	total := pricing.LineTotal(s.product, v, s.quantity)
	pv.UnitPrice = &unit
	pv.Total = &total
	if v != nil {
		pv.SKU = v.SKU
	}
	return pv
}

func parametricView(res pricing.Result[domain.ParametricPriceResult]) PriceView {
	pv := PriceView{Status: res.Status}
	if res.Err != nil {
		pv.Error = domain.ErrorMessage(res.Err)
	}
	if res.Value != nil {
		unit, total := res.Value.UnitPrice, res.Value.TotalPrice
		pv.UnitPrice = &unit
		pv.Total = &total
		pv.SKU = res.Value.SKU
		pv.Breakdown = res.Value.Breakdown
	}
	return pv
}

func axisViews(m *variant.Machine, axes []domain.VariantAxis) []AxisView {
	sel := m.Selection()
	avail := m.Available()
	errs := m.RangeErrors()

	out := make([]AxisView, 0, len(axes))
	for _, a := range axes {
		av := AxisView{
			Code:      a.AttributeCode,
			Label:     a.Label,
			InputType: a.InputType,
		}
		if a.IsDiscrete() {
			av.InputType = domain.AxisInputDiscrete
			av.Selected = sel.Options[a.AttributeCode]
			for _, o := range a.Options {
				av.Options = append(av.Options, OptionView{
					Code:      o.Code,
					Label:     o.Label,
					Available: avail.IsAvailable(a.AttributeCode, o.Code),
					Selected:  o.Code == av.Selected,
				})
			}
		} else {
			if v, ok := sel.Values[a.AttributeCode]; ok {
				av.Value = &v
			}
			av.Min, av.Max, av.Step, av.Unit = a.MinValue, a.MaxValue, a.StepValue, a.Unit
			av.Error = errs[a.AttributeCode]
		}
		out = append(out, av)
	}
	return out
}

// componentViews renders the bundle slots. Caller holds mu.
func (s *Session) componentViews() []ComponentView {
	errs := s.aggregator.Validate(s.lines)
	out := make([]ComponentView, 0, len(s.product.Components))
	for _, c := range s.aggregator.Components() {
		line := s.lines[c.ID]
		cv := ComponentView{
			ID:                 c.ID,
			ComponentProductID: c.ComponentProductID,
			Name:               c.Name,
			Quantity:           line.Quantity,
			MinQuantity:        c.MinQuantity,
			MaxQuantity:        c.MaxQuantity,
			Error:              errs[c.ID],
		}
		if len(line.Parameters) > 0 {
			cv.Parameters = line.Clone().Parameters
		}
		if len(line.Selections) > 0 {
			cv.Selections = line.Clone().Selections
		}
		if comp, ok := s.components[c.ID]; ok {
			cv.Axes = axisViews(comp.machine, c.Axes)
		}
		out = append(out, cv)
	}
	return out
}
