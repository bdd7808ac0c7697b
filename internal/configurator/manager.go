package configurator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/configurator/internal/domain"
)

// Manager is the registry of open sessions. Sessions share nothing with
// each other; the manager only maps ids to them.
type Manager struct {
	catalog domain.CatalogStore
	prices  domain.PriceService
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(catalog domain.CatalogStore, prices domain.PriceService, opts Options) *Manager {
	return &Manager{
		catalog:  catalog,
		prices:   prices,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Open loads the product and starts a session for it. variantSKU, when it
// names a known variant, seeds the selection (the ?variant= URL parameter).
func (m *Manager) Open(ctx context.Context, ref, variantSKU string) (*Session, error) {
	product, err := m.catalog.GetProduct(ctx, ref)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), product, m.prices, m.opts)
	s.start(ctx, variantSKU)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.opts.Metrics.SessionOpened(string(product.Kind))
	s.logger.Info("configurator session opened", "kind", product.Kind)
	return s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.NotFound("configurator.get", "configurator session", id)
	}
	return s, nil
}

// Close closes and forgets a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.NotFound("configurator.close", "configurator session", id)
	}

	s.Close()
	m.opts.Metrics.SessionClosed("closed")
	s.logger.Info("configurator session closed")
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed.
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.TTL <= 0 {
		return 0
	}

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.opts.TTL {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.opts.Metrics.SessionClosed("expired")
		s.logger.Info("configurator session expired")
	}
	return len(expired)
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		m.opts.Metrics.SessionClosed("shutdown")
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
