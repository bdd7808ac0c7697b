// Package catalog provides in-process product configuration stores.
package catalog

import (
	"context"
	"sync"

	"github.com/dukerupert/configurator/internal/domain"
)

// MemoryStore is a CatalogStore over an in-memory product set.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*domain.ProductConfiguration
	slugs    map[string]string
}

// NewMemoryStore validates and indexes products.
func NewMemoryStore(products ...*domain.ProductConfiguration) (*MemoryStore, error) {
	s := &MemoryStore{}
	if err := s.Replace(products); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps the whole product set. On a validation failure the current
// set is kept.
func (s *MemoryStore) Replace(products []*domain.ProductConfiguration) error {
	const op = "catalog.replace"

	byID := make(map[string]*domain.ProductConfiguration, len(products))
	slugs := make(map[string]string, len(products))
	for _, p := range products {
		if p.ID == "" {
			return domain.Invalid(op, "product without id")
		}
		if _, dup := byID[p.ID]; dup {
			return domain.Errorf(domain.ECONFLICT, op, "duplicate product id %s", p.ID)
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			return domain.WrapError(err, domain.EINVALID, op, "invalid product "+p.ID)
		}
		byID[p.ID] = p
		if p.Slug != "" {
			slugs[p.Slug] = p.ID
		}
	}

	s.mu.Lock()
	s.products = byID
	s.slugs = slugs
	s.mu.Unlock()
	return nil
}

// GetProduct returns a product by id or slug.
func (s *MemoryStore) GetProduct(ctx context.Context, ref string) (*domain.ProductConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[ref]; ok {
		return p, nil
	}
	if id, ok := s.slugs[ref]; ok {
		return s.products[id], nil
	}
	return nil, domain.WrapError(domain.ErrProductNotFound, domain.ENOTFOUND, "catalog.get_product", "product not found: "+ref)
}

// Len returns the number of products.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
