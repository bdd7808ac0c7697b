// Package postgres implements the product catalog on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/configurator/internal/domain"
)

// DBTX is the subset of pgxpool.Pool the catalog needs.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CatalogStore implements domain.CatalogStore using PostgreSQL.
type CatalogStore struct {
	db DBTX
}

// Compile-time check that CatalogStore implements domain.CatalogStore.
var _ domain.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore creates a PostgreSQL-backed catalog.
func NewCatalogStore(db DBTX) *CatalogStore {
	return &CatalogStore{db: db}
}

// =============================================================================
// QUERIES
// =============================================================================

const getProductSQL = `
SELECT id, slug, name, kind, currency, base_price::text
FROM products
WHERE id = $1 OR slug = $1
ORDER BY (id = $1) DESC
LIMIT 1`

const listAxesSQL = `
SELECT attribute_code, label, position, input_type, min_value, max_value, step_value, unit
FROM product_axes
WHERE product_id = $1
ORDER BY position, attribute_code`

const listOptionsSQL = `
SELECT attribute_code, code, label, position
FROM product_axis_options
WHERE product_id = $1
ORDER BY attribute_code, position, code`

const listVariantsSQL = `
SELECT id, sku, status, axis_values, price::text, in_stock, stock_quantity
FROM product_variants
WHERE product_id = $1
ORDER BY sku`

const listComponentsSQL = `
SELECT id, component_product_id, name, quantity, min_quantity, max_quantity, sort_order,
       default_parameters, default_selections, axes
FROM bundle_components
WHERE bundle_id = $1
ORDER BY sort_order, id`

const listScalesSQL = `
SELECT min_quantity, max_quantity, price::text, currency
FROM price_scales
WHERE product_id = $1
ORDER BY min_quantity`

// GetProduct loads a product configuration by id or slug.
func (s *CatalogStore) GetProduct(ctx context.Context, ref string) (*domain.ProductConfiguration, error) {
	const op = "postgres.get_product"

	var (
		p         domain.ProductConfiguration
		slug      pgtype.Text
		kind      string
		basePrice pgtype.Text
	)
	err := s.db.QueryRow(ctx, getProductSQL, ref).Scan(&p.ID, &slug, &p.Name, &kind, &p.Currency, &basePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProductNotFound, domain.ENOTFOUND, op, "product not found: "+ref)
		}
		return nil, domain.Internal(err, op, "failed to get product")
	}
	p.Slug = slug.String
	p.Kind = domain.ProductKind(kind)
	if p.BasePrice, err = decimalFromText(basePrice); err != nil {
		return nil, domain.Internal(err, op, "invalid base price")
	}

	if p.Axes, err = s.listAxes(ctx, p.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to list product axes")
	}
	if p.Variants, err = s.listVariants(ctx, p.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to list product variants")
	}
	if p.Kind == domain.ProductKindBundle {
		if p.Components, err = s.listComponents(ctx, p.ID); err != nil {
			return nil, domain.Internal(err, op, "failed to list bundle components")
		}
	}
	if p.PriceScales, err = s.listScales(ctx, p.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to list price scales")
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "invalid product data for "+p.ID)
	}
	return &p, nil
}

func (s *CatalogStore) listAxes(ctx context.Context, productID string) ([]domain.VariantAxis, error) {
	rows, err := s.db.Query(ctx, listAxesSQL, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var axes []domain.VariantAxis
	for rows.Next() {
		var (
			a                 domain.VariantAxis
			inputType         string
			minV, maxV, stepV pgtype.Float8
			unit              pgtype.Text
			label             map[string]string
		)
		if err := rows.Scan(&a.AttributeCode, &label, &a.Position, &inputType, &minV, &maxV, &stepV, &unit); err != nil {
			return nil, err
		}
		a.Label = domain.LocalizedText(label)
		a.InputType = domain.AxisInputType(inputType)
		a.MinValue, a.MaxValue, a.StepValue = minV.Float64, maxV.Float64, stepV.Float64
		a.Unit = unit.String
		axes = append(axes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	options, err := s.listOptions(ctx, productID)
	if err != nil {
		return nil, err
	}
	for i := range axes {
		axes[i].Options = options[axes[i].AttributeCode]
	}
	return axes, nil
}

func (s *CatalogStore) listOptions(ctx context.Context, productID string) (map[string][]domain.AxisOption, error) {
	rows, err := s.db.Query(ctx, listOptionsSQL, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.AxisOption)
	for rows.Next() {
		var (
			axis  string
			o     domain.AxisOption
			label map[string]string
		)
		if err := rows.Scan(&axis, &o.Code, &label, &o.Position); err != nil {
			return nil, err
		}
		o.Label = domain.LocalizedText(label)
		out[axis] = append(out[axis], o)
	}
	return out, rows.Err()
}

func (s *CatalogStore) listVariants(ctx context.Context, productID string) ([]domain.ProductVariant, error) {
	rows, err := s.db.Query(ctx, listVariantsSQL, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []domain.ProductVariant
	for rows.Next() {
		var (
			v      domain.ProductVariant
			status string
			price  pgtype.Text
		)
		if err := rows.Scan(&v.ID, &v.SKU, &status, &v.AxisValues, &price, &v.Availability.InStock, &v.Availability.Quantity); err != nil {
			return nil, err
		}
		v.Status = domain.VariantStatus(status)
		if v.Price, err = nullDecimalFromText(price); err != nil {
			return nil, fmt.Errorf("variant %s: %w", v.SKU, err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *CatalogStore) listComponents(ctx context.Context, bundleID string) ([]domain.BundleComponent, error) {
	rows, err := s.db.Query(ctx, listComponentsSQL, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []domain.BundleComponent
	for rows.Next() {
		var (
			c              domain.BundleComponent
			minQty, maxQty pgtype.Int4
		)
		if err := rows.Scan(&c.ID, &c.ComponentProductID, &c.Name, &c.Quantity, &minQty, &maxQty, &c.SortOrder,
			&c.DefaultParameters, &c.DefaultSelections, &c.Axes); err != nil {
			return nil, err
		}
		c.MinQuantity = intPtrFromPg(minQty)
		c.MaxQuantity = intPtrFromPg(maxQty)
		components = append(components, c)
	}
	return components, rows.Err()
}

func (s *CatalogStore) listScales(ctx context.Context, productID string) ([]domain.PriceScale, error) {
	rows, err := s.db.Query(ctx, listScalesSQL, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scales []domain.PriceScale
	for rows.Next() {
		var (
			ps     domain.PriceScale
			maxQty pgtype.Int4
			price  pgtype.Text
		)
		if err := rows.Scan(&ps.MinQuantity, &maxQty, &price, &ps.Currency); err != nil {
			return nil, err
		}
		ps.MaxQuantity = intPtrFromPg(maxQty)
		if ps.Price, err = decimalFromText(price); err != nil {
			return nil, fmt.Errorf("price scale %d: %w", ps.MinQuantity, err)
		}
		scales = append(scales, ps)
	}
	return scales, rows.Err()
}
