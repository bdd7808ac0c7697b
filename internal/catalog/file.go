package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/dukerupert/configurator/internal/domain"
)

// FileStore is a CatalogStore loaded from a YAML, JSON or TOML file.
// It is meant for development and demos; production uses postgres.
//
// Viper folds map keys to lower case, so attribute codes from a file
// catalog are always lower case.
type FileStore struct {
	*MemoryStore
	v *viper.Viper
}

// NewFileStore reads and validates the catalog at path.
func NewFileStore(path string) (*FileStore, error) {
	v := viper.New()
	v.SetConfigFile(path)

	s := &FileStore{MemoryStore: &MemoryStore{}, v: v}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	const op = "catalog.load_file"

	if err := s.v.ReadInConfig(); err != nil {
		return domain.Internal(err, op, "failed to read catalog file")
	}

	var doc catalogFile
	if err := s.v.Unmarshal(&doc); err != nil {
		return domain.Internal(err, op, "failed to decode catalog file")
	}

	products := make([]*domain.ProductConfiguration, 0, len(doc.Products))
	for i, dto := range doc.Products {
		p, err := dto.toDomain()
		if err != nil {
			return domain.WrapError(err, domain.EINVALID, op, fmt.Sprintf("products[%d]", i))
		}
		products = append(products, p)
	}
	return s.Replace(products)
}

// Watch reloads the catalog whenever the file changes. A reload that fails
// validation is logged and the previous catalog stays active.
func (s *FileStore) Watch(logger *slog.Logger) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.load(); err != nil {
			logger.Error("catalog reload failed", "file", e.Name, "error", err)
			return
		}
		logger.Info("catalog reloaded", "file", e.Name, "products", s.Len())
	})
	s.v.WatchConfig()
}

// =============================================================================
// FILE FORMAT
// =============================================================================

type catalogFile struct {
	Products []productDTO `mapstructure:"products"`
}

type productDTO struct {
	ID          string         `mapstructure:"id"`
	Slug        string         `mapstructure:"slug"`
	Name        string         `mapstructure:"name"`
	Kind        string         `mapstructure:"kind"`
	Currency    string         `mapstructure:"currency"`
	BasePrice   string         `mapstructure:"base_price"`
	Axes        []axisDTO      `mapstructure:"axes"`
	Variants    []variantDTO   `mapstructure:"variants"`
	Components  []componentDTO `mapstructure:"components"`
	PriceScales []scaleDTO     `mapstructure:"price_scales"`
}

type axisDTO struct {
	AttributeCode string            `mapstructure:"attribute_code"`
	Label         map[string]string `mapstructure:"label"`
	Position      int               `mapstructure:"position"`
	InputType     string            `mapstructure:"input_type"`
	Options       []optionDTO       `mapstructure:"options"`
	MinValue      float64           `mapstructure:"min_value"`
	MaxValue      float64           `mapstructure:"max_value"`
	StepValue     float64           `mapstructure:"step_value"`
	Unit          string            `mapstructure:"unit"`
}

type optionDTO struct {
	Code     string            `mapstructure:"code"`
	Label    map[string]string `mapstructure:"label"`
	Position int               `mapstructure:"position"`
}

type variantDTO struct {
	ID         string            `mapstructure:"id"`
	SKU        string            `mapstructure:"sku"`
	Status     string            `mapstructure:"status"`
	AxisValues map[string]string `mapstructure:"axis_values"`
	Price      string            `mapstructure:"price"`
	InStock    *bool             `mapstructure:"in_stock"`
	Quantity   int               `mapstructure:"quantity"`
}

type componentDTO struct {
	ID                 string             `mapstructure:"id"`
	ComponentProductID string             `mapstructure:"component_product_id"`
	Name               string             `mapstructure:"name"`
	Quantity           int                `mapstructure:"quantity"`
	MinQuantity        *int               `mapstructure:"min_quantity"`
	MaxQuantity        *int               `mapstructure:"max_quantity"`
	SortOrder          int                `mapstructure:"sort_order"`
	DefaultParameters  map[string]float64 `mapstructure:"default_parameters"`
	DefaultSelections  map[string]string  `mapstructure:"default_selections"`
	Axes               []axisDTO          `mapstructure:"axes"`
}

type scaleDTO struct {
	MinQuantity int    `mapstructure:"min_quantity"`
	MaxQuantity *int   `mapstructure:"max_quantity"`
	Price       string `mapstructure:"price"`
	Currency    string `mapstructure:"currency"`
}

func (d productDTO) toDomain() (*domain.ProductConfiguration, error) {
	p := &domain.ProductConfiguration{
		ID:       d.ID,
		Slug:     d.Slug,
		Name:     d.Name,
		Kind:     domain.ProductKind(d.Kind),
		Currency: d.Currency,
	}
	if p.Kind == "" {
		p.Kind = domain.ProductKindSimple
	}

	var err error
	if p.BasePrice, err = parseMoney(d.BasePrice); err != nil {
		return nil, fmt.Errorf("base_price: %w", err)
	}

	p.Axes = axesToDomain(d.Axes)

	for _, vd := range d.Variants {
		v := domain.ProductVariant{
			ID:         vd.ID,
			SKU:        vd.SKU,
			Status:     domain.VariantStatus(vd.Status),
			AxisValues: lowerKeys(vd.AxisValues),
			Availability: domain.Availability{
				InStock:  vd.InStock == nil || *vd.InStock,
				Quantity: vd.Quantity,
			},
		}
		if v.Status == "" {
			v.Status = domain.VariantStatusActive
		}
		if v.ID == "" {
			v.ID = v.SKU
		}
		if vd.Price != "" {
			price, err := decimal.NewFromString(vd.Price)
			if err != nil {
				return nil, fmt.Errorf("variant %s price: %w", vd.SKU, err)
			}
			v.Price = decimal.NewNullDecimal(price)
		}
		p.Variants = append(p.Variants, v)
	}

	for _, cd := range d.Components {
		c := domain.BundleComponent{
			ID:                 cd.ID,
			ComponentProductID: cd.ComponentProductID,
			Name:               cd.Name,
			Quantity:           cd.Quantity,
			MinQuantity:        cd.MinQuantity,
			MaxQuantity:        cd.MaxQuantity,
			SortOrder:          cd.SortOrder,
			DefaultParameters:  lowerKeys(cd.DefaultParameters),
			DefaultSelections:  lowerKeys(cd.DefaultSelections),
			Axes:               axesToDomain(cd.Axes),
		}
		p.Components = append(p.Components, c)
	}

	for _, sd := range d.PriceScales {
		price, err := decimal.NewFromString(sd.Price)
		if err != nil {
			return nil, fmt.Errorf("price scale %d: %w", sd.MinQuantity, err)
		}
		currency := sd.Currency
		if currency == "" {
			currency = p.Currency
		}
		p.PriceScales = append(p.PriceScales, domain.PriceScale{
			MinQuantity: sd.MinQuantity,
			MaxQuantity: sd.MaxQuantity,
			Price:       price,
			Currency:    currency,
		})
	}
	return p, nil
}

func axesToDomain(in []axisDTO) []domain.VariantAxis {
	out := make([]domain.VariantAxis, 0, len(in))
	for _, ad := range in {
		a := domain.VariantAxis{
			AttributeCode: strings.ToLower(ad.AttributeCode),
			Label:         domain.LocalizedText(ad.Label),
			Position:      ad.Position,
			InputType:     domain.AxisInputType(ad.InputType),
			MinValue:      ad.MinValue,
			MaxValue:      ad.MaxValue,
			StepValue:     ad.StepValue,
			Unit:          ad.Unit,
		}
		if a.InputType == "" {
			a.InputType = domain.AxisInputDiscrete
		}
		for _, od := range ad.Options {
			a.Options = append(a.Options, domain.AxisOption{
				Code:     od.Code,
				Label:    domain.LocalizedText(od.Label),
				Position: od.Position,
			})
		}
		out = append(out, a)
	}
	return out
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func lowerKeys[V any](in map[string]V) map[string]V {
	if in == nil {
		return nil
	}
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
