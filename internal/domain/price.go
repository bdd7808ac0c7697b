package domain

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=price.go -destination=../priceclient/mock/price_service.go -package=mock

// PriceService is the backend price/availability collaborator.
// The resolver never computes prices itself; it shapes requests for this
// service and displays what comes back.
type PriceService interface {
	// AvailableAxisValues returns server-side availability for a partial
	// selection. Used only when no local variant list is loaded.
	AvailableAxisValues(ctx context.Context, productID string, selection map[string]string) (map[string][]AxisOption, error)

	// SelectVariant asks the backend to confirm which variant a selection resolves to.
	SelectVariant(ctx context.Context, productID string, selection map[string]string) (*ProductVariant, error)

	// CalculateParametricPrice prices a formula-driven product.
	CalculateParametricPrice(ctx context.Context, req ParametricPriceRequest) (*ParametricPriceResult, error)

	// CalculateBundlePrice prices every line of a bundle and the bundle total.
	CalculateBundlePrice(ctx context.Context, req BundlePriceRequest) (*BundlePriceResult, error)
}

// ParametricPriceRequest is the payload of calculateParametricPrice.
type ParametricPriceRequest struct {
	ProductID  string             `json:"-"`
	Parameters map[string]float64 `json:"parameters"`
	Selections map[string]string  `json:"selections"`
	Quantity   int                `json:"quantity"`
}

// ParametricPriceResult is replaced wholesale on every successful resolution.
type ParametricPriceResult struct {
	UnitPrice  decimal.Decimal            `json:"unitPrice"`
	TotalPrice decimal.Decimal            `json:"totalPrice"`
	SKU        string                     `json:"sku,omitempty"`
	Breakdown  map[string]json.RawMessage `json:"breakdown,omitempty"`
}

// BundlePriceRequest is the payload of calculateBundlePrice.
type BundlePriceRequest struct {
	BundleProductID string            `json:"-"`
	Components      []BundlePriceLine `json:"components"`
}

// BundlePriceLine is one component line of a bundle price request.
// Parameters and Selections are sent only when non-empty.
type BundlePriceLine struct {
	ComponentID string             `json:"component_id"`
	Quantity    int                `json:"quantity"`
	Parameters  map[string]float64 `json:"parameters,omitempty"`
	Selections  map[string]string  `json:"selections,omitempty"`
}

// BundlePriceResult is the backend answer for a bundle.
type BundlePriceResult struct {
	Total      decimal.Decimal        `json:"total"`
	Components []BundleComponentPrice `json:"components"`
}

// BundleComponentPrice is the priced line for one component slot.
type BundleComponentPrice struct {
	ComponentID string          `json:"componentId"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}
