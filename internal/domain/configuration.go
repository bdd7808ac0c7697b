package domain

import "context"

// CartConfiguration is the configuration payload handed to the cart
// subsystem. Empty sub-structures are omitted, never sent as {} or [].
type CartConfiguration struct {
	BundleComponents []BundleLineConfiguration `json:"bundleComponents,omitempty"`
	Parameters       map[string]float64        `json:"parameters,omitempty"`
	Selections       map[string]string         `json:"selections,omitempty"`
}

// IsEmpty reports whether the configuration carries nothing.
func (c CartConfiguration) IsEmpty() bool {
	return len(c.BundleComponents) == 0 && len(c.Parameters) == 0 && len(c.Selections) == 0
}

// BundleLineConfiguration is one component line inside a cart configuration.
type BundleLineConfiguration struct {
	ComponentID string             `json:"componentId"`
	Quantity    int                `json:"quantity"`
	Parameters  map[string]float64 `json:"parameters,omitempty"`
	Selections  map[string]string  `json:"selections,omitempty"`
}

// CartLine is a fully configured item ready for the cart subsystem.
type CartLine struct {
	ProductID     string            `json:"productId"`
	VariantID     string            `json:"variantId,omitempty"`
	SKU           string            `json:"sku,omitempty"`
	Quantity      int               `json:"quantity"`
	Configuration CartConfiguration `json:"configuration"`
}

// CartPublisher hands finished cart lines to the external cart subsystem.
type CartPublisher interface {
	Publish(ctx context.Context, line CartLine) error
}
