package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT CONFIGURATION TYPES
// =============================================================================

// ProductKind determines which resolver drives a product's configurator.
type ProductKind string

const (
	ProductKindSimple        ProductKind = "simple"
	ProductKindVariantParent ProductKind = "variant_parent"
	ProductKindBundle        ProductKind = "bundle"
	ProductKindParametric    ProductKind = "parametric"
)

// AxisInputType distinguishes pick-one-option axes from numeric range inputs.
type AxisInputType string

const (
	AxisInputDiscrete AxisInputType = "discrete"
	AxisInputRange    AxisInputType = "range"
)

// VariantStatus is the lifecycle state of a concrete variant.
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusInactive VariantStatus = "inactive"
)

// LocalizedText maps a locale ("en", "de-CH") to display text.
type LocalizedText map[string]string

// In returns the text for locale, then for fallback, then any non-empty value.
func (t LocalizedText) In(locale, fallback string) string {
	if v := t[locale]; v != "" {
		return v
	}
	if v := t[fallback]; v != "" {
		return v
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if t[k] != "" {
			return t[k]
		}
	}
	return ""
}

// AxisOption is one selectable value of a discrete axis.
type AxisOption struct {
	Code     string        `json:"code"`
	Label    LocalizedText `json:"label,omitempty"`
	Position int           `json:"position"`
}

// VariantAxis is one independent choice dimension of a configurable product.
// Axes are immutable configuration loaded once per product.
type VariantAxis struct {
	AttributeCode string        `json:"attributeCode"`
	Label         LocalizedText `json:"label,omitempty"`
	Position      int           `json:"position"`
	InputType     AxisInputType `json:"inputType"`

	// Discrete axes
	Options []AxisOption `json:"options,omitempty"`

	// Range axes
	MinValue  float64 `json:"minValue,omitempty"`
	MaxValue  float64 `json:"maxValue,omitempty"`
	StepValue float64 `json:"stepValue,omitempty"`
	Unit      string  `json:"unit,omitempty"`
}

// IsDiscrete reports whether the axis is chosen from a fixed option list.
func (a VariantAxis) IsDiscrete() bool {
	return a.InputType != AxisInputRange
}

// HasOption reports whether code is one of the axis options.
func (a VariantAxis) HasOption(code string) bool {
	for _, o := range a.Options {
		if o.Code == code {
			return true
		}
	}
	return false
}

// CheckValue returns a user-facing message when v is outside the declared
// bounds of a range axis, or "" when the value is acceptable.
func (a VariantAxis) CheckValue(v float64) string {
	if v < a.MinValue {
		return strings.TrimSpace(fmt.Sprintf("must be at least %s %s", formatNumber(a.MinValue), a.Unit))
	}
	if v > a.MaxValue {
		return strings.TrimSpace(fmt.Sprintf("must be at most %s %s", formatNumber(a.MaxValue), a.Unit))
	}
	return ""
}

func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Availability is the stock position of a variant.
type Availability struct {
	InStock  bool `json:"inStock"`
	Quantity int  `json:"quantity"`
}

// ProductVariant is one concrete, purchasable combination of axis values.
type ProductVariant struct {
	ID           string              `json:"id"`
	SKU          string              `json:"sku"`
	Status       VariantStatus       `json:"status"`
	AxisValues   map[string]string   `json:"axisValues"`
	Price        decimal.NullDecimal `json:"price"`
	Availability Availability        `json:"availability"`
}

// IsActive reports whether the variant participates in availability.
func (v ProductVariant) IsActive() bool {
	return v.Status == VariantStatusActive
}

// Purchasable reports whether the variant can be added to a cart right now.
func (v ProductVariant) Purchasable() bool {
	return v.IsActive() && v.Availability.InStock
}

// BundleComponent is one slot of a bundle product. ID is the stable slot id,
// distinct from the component product id.
type BundleComponent struct {
	ID                 string             `json:"id"`
	ComponentProductID string             `json:"componentProductId"`
	Name               string             `json:"name,omitempty"`
	Quantity           int                `json:"quantity"`
	MinQuantity        *int               `json:"minQuantity,omitempty"`
	MaxQuantity        *int               `json:"maxQuantity,omitempty"`
	SortOrder          int                `json:"sortOrder"`
	DefaultParameters  map[string]float64 `json:"defaultParameters,omitempty"`
	DefaultSelections  map[string]string  `json:"defaultSelections,omitempty"`

	// Axes holds the inputs of a parametric component product.
	// Empty for plain components.
	Axes []VariantAxis `json:"axes,omitempty"`
}

// IsParametric reports whether the component carries its own configuration.
func (c BundleComponent) IsParametric() bool {
	return len(c.Axes) > 0
}

// PriceScale is one quantity-break tier.
type PriceScale struct {
	MinQuantity int             `json:"minQuantity"`
	MaxQuantity *int            `json:"maxQuantity,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
}

// ProductConfiguration is everything the resolver needs about one product.
type ProductConfiguration struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Kind        ProductKind       `json:"kind"`
	Currency    string            `json:"currency"`
	BasePrice   decimal.Decimal   `json:"basePrice"`
	Axes        []VariantAxis     `json:"axes"`
	Variants    []ProductVariant  `json:"variants"`
	Components  []BundleComponent `json:"components,omitempty"`
	PriceScales []PriceScale      `json:"priceScales,omitempty"`
}

// DiscreteAxes returns the option-based axes in position order.
func (p *ProductConfiguration) DiscreteAxes() []VariantAxis {
	out := make([]VariantAxis, 0, len(p.Axes))
	for _, a := range p.Axes {
		if a.IsDiscrete() {
			out = append(out, a)
		}
	}
	return out
}

// RangeAxes returns the numeric range axes in position order.
func (p *ProductConfiguration) RangeAxes() []VariantAxis {
	out := make([]VariantAxis, 0, len(p.Axes))
	for _, a := range p.Axes {
		if !a.IsDiscrete() {
			out = append(out, a)
		}
	}
	return out
}

// Axis looks up an axis by attribute code.
func (p *ProductConfiguration) Axis(code string) (VariantAxis, bool) {
	for _, a := range p.Axes {
		if a.AttributeCode == code {
			return a, true
		}
	}
	return VariantAxis{}, false
}

// Component looks up a bundle slot by id.
func (p *ProductConfiguration) Component(id string) (BundleComponent, bool) {
	for _, c := range p.Components {
		if c.ID == id {
			return c, true
		}
	}
	return BundleComponent{}, false
}

// Normalize sorts axes, options, components and price scales into their
// display order. Stores call it once after loading.
func (p *ProductConfiguration) Normalize() {
	sortAxes(p.Axes)
	sort.SliceStable(p.Components, func(i, j int) bool {
		return p.Components[i].SortOrder < p.Components[j].SortOrder
	})
	for i := range p.Components {
		sortAxes(p.Components[i].Axes)
	}
	sort.SliceStable(p.PriceScales, func(i, j int) bool {
		return p.PriceScales[i].MinQuantity < p.PriceScales[j].MinQuantity
	})
}

func sortAxes(axes []VariantAxis) {
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].Position < axes[j].Position })
	for i := range axes {
		opts := axes[i].Options
		sort.SliceStable(opts, func(a, b int) bool { return opts[a].Position < opts[b].Position })
	}
}

// Validate checks the variant data invariants: every variant covers every
// discrete axis with a known option, and no two active variants share the
// same axis values. Violations are data errors reported per variant.
func (p *ProductConfiguration) Validate() error {
	const op = "product.validate"

	var err error
	discrete := p.DiscreteAxes()
	seen := make(map[string]string, len(p.Variants))

	for _, v := range p.Variants {
		field := "variants[" + v.SKU + "]"
		if len(v.AxisValues) != len(discrete) {
			err = addField(err, op, field, fmt.Sprintf("covers %d of %d axes", len(v.AxisValues), len(discrete)))
			continue
		}
		for _, a := range discrete {
			code, ok := v.AxisValues[a.AttributeCode]
			if !ok || code == "" {
				err = addField(err, op, field, "missing value for axis "+a.AttributeCode)
				break
			}
			if !a.HasOption(code) {
				err = addField(err, op, field, fmt.Sprintf("unknown option %q for axis %s", code, a.AttributeCode))
				break
			}
		}
		if !v.IsActive() {
			continue
		}
		key := axisKey(discrete, v.AxisValues)
		if other, dup := seen[key]; dup {
			err = addField(err, op, field, "duplicates the axis values of "+other)
			continue
		}
		seen[key] = v.SKU
	}

	return err
}

func addField(err error, op, field, message string) error {
	err = AddFieldError(err, field, message)
	if ve, ok := err.(*ValidationError); ok {
		ve.Op = op
	}
	return err
}

func axisKey(axes []VariantAxis, values map[string]string) string {
	var b strings.Builder
	for _, a := range axes {
		b.WriteString(a.AttributeCode)
		b.WriteByte('=')
		b.WriteString(values[a.AttributeCode])
		b.WriteByte(';')
	}
	return b.String()
}

// =============================================================================
// CATALOG INTERFACE
// =============================================================================

// CatalogStore loads product configurations.
type CatalogStore interface {
	// GetProduct returns the configuration for a product id or slug.
	// Returns ErrProductNotFound when no product matches.
	GetProduct(ctx context.Context, ref string) (*ProductConfiguration, error)
}

// =============================================================================
// DOMAIN ERRORS
// =============================================================================

var (
	ErrProductNotFound  = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrUnknownAxis      = &Error{Code: EINVALID, Message: "Unknown axis"}
	ErrUnknownOption    = &Error{Code: EINVALID, Message: "Unknown option for axis"}
	ErrUnknownComponent = &Error{Code: ENOTFOUND, Message: "Bundle component not found"}
	ErrNotRangeAxis     = &Error{Code: EINVALID, Message: "Axis does not accept numeric values"}
	ErrNotDiscreteAxis  = &Error{Code: EINVALID, Message: "Axis does not accept option codes"}
)
