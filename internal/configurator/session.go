package configurator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/configurator/internal/bundle"
	"github.com/dukerupert/configurator/internal/cartconfig"
	"github.com/dukerupert/configurator/internal/domain"
	"github.com/dukerupert/configurator/internal/pricing"
	"github.com/dukerupert/configurator/internal/variant"
)

// Session is one open configurator.
//
// All selection state is guarded by mu. Resolvers run their timers and
// requests on their own goroutines and never call back into the session,
// so holding mu while scheduling is safe.
type Session struct {
	id      string
	product *domain.ProductConfiguration
	prices  domain.PriceService
	opts    Options
	logger  *slog.Logger

	mu              sync.Mutex
	machine         *variant.Machine
	quantity        int
	aggregator      *bundle.Aggregator
	lines           bundle.Lines
	components      map[string]*component
	parametric      *pricing.ParametricResolver
	bundlePrice     *pricing.BundleResolver
	confirmed       *domain.ProductVariant
	availabilityErr error
	lastUsed        time.Time
	closed          bool
}

// component is the independent state of a parametric bundle slot.
type component struct {
	def      domain.BundleComponent
	machine  *variant.Machine
	resolver *pricing.ParametricResolver
}

func newSession(id string, product *domain.ProductConfiguration, prices domain.PriceService, opts Options) *Session {
	s := &Session{
		id:       id,
		product:  product,
		prices:   prices,
		opts:     opts,
		logger:   opts.Logger.With("session_id", id, "product_id", product.ID),
		machine:  variant.NewMachine(product.Axes, product.Variants),
		quantity: 1,
		lastUsed: opts.Now(),
	}

	switch product.Kind {
	case domain.ProductKindParametric:
		s.parametric = pricing.NewParametricResolver(prices, product.Axes, opts.resolverConfig("parametric"))

	case domain.ProductKindBundle:
		s.aggregator = bundle.NewAggregator(product.ID, product.Components)
		s.lines = s.aggregator.DefaultLines()
		s.bundlePrice = pricing.NewBundleResolver(prices, s.aggregator.RequestValid, opts.resolverConfig("bundle"))
		s.components = make(map[string]*component)

		for _, c := range product.Components {
			if !c.IsParametric() {
				continue
			}
			comp := &component{
				def:      c,
				machine:  variant.NewMachine(c.Axes, nil),
				resolver: pricing.NewParametricResolver(prices, c.Axes, opts.resolverConfig("component")),
			}
			for code, v := range c.DefaultParameters {
				_, _ = comp.machine.SetValue(code, v)
			}
			for code, v := range c.DefaultSelections {
				_, _ = comp.machine.SetAxis(code, v)
			}
			sel := comp.machine.Selection()
			line := s.lines[c.ID]
			line.Parameters = sel.Values
			line.Selections = sel.Chosen()
			s.lines[c.ID] = line
			s.components[c.ID] = comp
		}
	}

	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Product returns the product being configured.
func (s *Session) Product() *domain.ProductConfiguration { return s.product }

// LastUsed returns when the session was last touched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// lock acquires mu and refuses closed sessions. On success the caller must
// unlock.
func (s *Session) lock(op string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Errorf(domain.EGONE, op, "configurator session is closed")
	}
	s.lastUsed = s.opts.Now()
	return nil
}

// start seeds the selection from a bookmarked SKU and schedules the first
// price resolution.
func (s *Session) start(ctx context.Context, variantSKU string) {
	s.mu.Lock()
	if variantSKU != "" && !s.machine.Seed(variantSKU) {
		s.logger.Info("ignoring unknown variant seed", "sku", variantSKU)
	}
	s.schedulePrice()
	s.scheduleBundle()
	for _, comp := range s.components {
		s.scheduleComponent(comp)
	}
	needsServer := s.needsServerAvailability()
	s.mu.Unlock()

	if needsServer {
		s.refreshAvailability(ctx)
	}
}

// =============================================================================
// SELECTION
// =============================================================================

// SetAxis sets one discrete axis; an empty value clears it.
func (s *Session) SetAxis(ctx context.Context, code, value string) error {
	const op = "configurator.set_axis"
	if err := s.lock(op); err != nil {
		return err
	}

	changed, err := s.machine.SetAxis(code, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if changed {
		s.selectionChanged()
	}
	needsServer := changed && s.needsServerAvailability()
	s.mu.Unlock()

	if needsServer {
		s.refreshAvailability(ctx)
	}
	return nil
}

// SetParameter sets a range axis. A nil value clears it. Out-of-bounds
// values are accepted and reported per axis in the view.
func (s *Session) SetParameter(code string, value *float64) error {
	const op = "configurator.set_parameter"
	if err := s.lock(op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	var changed bool
	if value == nil {
		changed = s.machine.ClearValue(code)
	} else {
		var err error
		if changed, err = s.machine.SetValue(code, *value); err != nil {
			return err
		}
	}
	if changed {
		s.confirmed = nil
		s.schedulePrice()
	}
	return nil
}

// ResetAll clears every axis.
func (s *Session) ResetAll(ctx context.Context) error {
	const op = "configurator.reset"
	if err := s.lock(op); err != nil {
		return err
	}

	changed := s.machine.ResetAll()
	if changed {
		s.confirmed = nil
		s.schedulePrice()
	}
	needsServer := changed && s.needsServerAvailability()
	s.mu.Unlock()

	if needsServer {
		s.refreshAvailability(ctx)
	}
	return nil
}

// SetQuantity sets the cart-line quantity used for pricing.
func (s *Session) SetQuantity(quantity int) error {
	const op = "configurator.set_quantity"
	if quantity < 1 {
		return domain.NewValidationError(op, "quantity", "must be at least 1")
	}
	if err := s.lock(op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.quantity != quantity {
		s.quantity = quantity
		s.schedulePrice()
	}
	return nil
}

// selectionChanged runs after a discrete axis changed. Caller holds mu.
func (s *Session) selectionChanged() {
	s.confirmed = nil
	s.opts.Metrics.AxisChanged()
	if s.machine.State() == variant.StateCompleteInvalid {
		s.opts.Metrics.InvalidCombination()
	}
	s.schedulePrice()
}

func (s *Session) needsServerAvailability() bool {
	return s.product.Kind == domain.ProductKindVariantParent &&
		!s.machine.HasLocalVariants() &&
		len(s.product.DiscreteAxes()) > 0
}

// refreshAvailability fetches backend availability for the current
// selection. Failures are transient: the last known availability stays in
// place and the error is shown until the next successful fetch.
func (s *Session) refreshAvailability(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	chosen := s.machine.Selection().Chosen()
	s.mu.Unlock()

	available, err := s.prices.AvailableAxisValues(ctx, s.product.ID, chosen)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !sameOptions(chosen, s.machine.Selection().Chosen()) {
		return
	}
	if err != nil {
		s.availabilityErr = err
		s.logger.Warn("failed to fetch axis availability", "error", err)
		return
	}
	s.availabilityErr = nil
	s.machine.SetServerAvailability(available)
}

func sameOptions(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// ConfirmVariant asks the backend which variant the current complete
// selection resolves to. The local match stays authoritative for display;
// the confirmed variant is reported alongside it.
func (s *Session) ConfirmVariant(ctx context.Context) (*domain.ProductVariant, error) {
	const op = "configurator.confirm_variant"
	if err := s.lock(op); err != nil {
		return nil, err
	}
	if err := s.requireCompleteSelection(op); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	chosen := s.machine.Selection().Chosen()
	s.mu.Unlock()

	v, err := s.prices.SelectVariant(ctx, s.product.ID, chosen)
	if err != nil {
		return nil, err
	}

	if err := s.lock(op); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if !sameOptions(chosen, s.machine.Selection().Chosen()) {
		return nil, domain.Conflict(op, "selection changed while confirming")
	}
	s.confirmed = v
	out := *v
	return &out, nil
}

// requireCompleteSelection maps the selection state onto an error for
// operations that need a finished choice. Caller holds mu.
func (s *Session) requireCompleteSelection(op string) error {
	switch s.machine.State() {
	case variant.StateEmpty, variant.StatePartial:
		return domain.Invalid(op, "selection is incomplete")
	case variant.StateCompleteInvalid:
		return domain.Invalid(op, "selected combination is not available")
	}
	return nil
}

// =============================================================================
// BUNDLE COMPONENTS
// =============================================================================

// SetComponentQuantity sets the quantity of one bundle slot. Bounds
// violations are accepted and reported per component; only negative
// quantities are rejected outright.
func (s *Session) SetComponentQuantity(componentID string, quantity int) error {
	const op = "configurator.set_component_quantity"
	if quantity < 0 {
		return domain.NewValidationError(op, componentID, "quantity must not be negative")
	}
	if err := s.lock(op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	line, err := s.line(op, componentID)
	if err != nil {
		return err
	}
	if line.Quantity == quantity {
		return nil
	}
	line.Quantity = quantity
	s.lines[componentID] = line

	if comp, ok := s.components[componentID]; ok {
		s.scheduleComponent(comp)
	}
	s.scheduleBundle()
	return nil
}

// SetComponentParameter sets a range input of a parametric bundle slot.
// A nil value clears it.
func (s *Session) SetComponentParameter(componentID, code string, value *float64) error {
	const op = "configurator.set_component_parameter"
	if err := s.lock(op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	comp, err := s.component(op, componentID)
	if err != nil {
		return err
	}

	var changed bool
	if value == nil {
		changed = comp.machine.ClearValue(code)
	} else if changed, err = comp.machine.SetValue(code, *value); err != nil {
		return err
	}
	if changed {
		s.componentChanged(comp)
	}
	return nil
}

// SetComponentSelection sets a categorical input of a parametric bundle
// slot. An empty value clears it.
func (s *Session) SetComponentSelection(componentID, code, value string) error {
	const op = "configurator.set_component_selection"
	if err := s.lock(op); err != nil {
		return err
	}
	defer s.mu.Unlock()

	comp, err := s.component(op, componentID)
	if err != nil {
		return err
	}
	changed, err := comp.machine.SetAxis(code, value)
	if err != nil {
		return err
	}
	if changed {
		s.componentChanged(comp)
	}
	return nil
}

// componentChanged copies a slot's inputs into its bundle line and
// reschedules both the slot and the bundle. Caller holds mu.
func (s *Session) componentChanged(comp *component) {
	sel := comp.machine.Selection()
	line := s.lines[comp.def.ID]
	line.Parameters = sel.Values
	line.Selections = sel.Chosen()
	s.lines[comp.def.ID] = line

	s.scheduleComponent(comp)
	s.scheduleBundle()
}

func (s *Session) line(op, componentID string) (bundle.Line, error) {
	if s.aggregator == nil {
		return bundle.Line{}, domain.Invalid(op, "product is not a bundle")
	}
	if _, ok := s.product.Component(componentID); !ok {
		return bundle.Line{}, domain.WrapError(domain.ErrUnknownComponent, domain.ENOTFOUND, op, "bundle component not found: "+componentID)
	}
	return s.lines[componentID], nil
}

func (s *Session) component(op, componentID string) (*component, error) {
	if _, err := s.line(op, componentID); err != nil {
		return nil, err
	}
	comp, ok := s.components[componentID]
	if !ok {
		return nil, domain.Invalid(op, "bundle component "+componentID+" has no configurable inputs")
	}
	return comp, nil
}

// =============================================================================
// PRICE SCHEDULING (caller holds mu)
// =============================================================================

func (s *Session) schedulePrice() {
	if s.parametric == nil {
		return
	}
	sel := s.machine.Selection()
	s.parametric.Schedule(domain.ParametricPriceRequest{
		ProductID:  s.product.ID,
		Parameters: sel.Values,
		Selections: sel.Chosen(),
		Quantity:   s.quantity,
	})
}

func (s *Session) scheduleBundle() {
	if s.bundlePrice == nil {
		return
	}
	s.bundlePrice.Schedule(s.aggregator.BuildRequest(s.lines))
}

func (s *Session) scheduleComponent(comp *component) {
	sel := comp.machine.Selection()
	comp.resolver.Schedule(domain.ParametricPriceRequest{
		ProductID:  comp.def.ComponentProductID,
		Parameters: sel.Values,
		Selections: sel.Chosen(),
		Quantity:   s.lines[comp.def.ID].Quantity,
	})
}

// =============================================================================
// CART HAND-OFF
// =============================================================================

// CartConfiguration packages the current state into a cart line. A zero
// quantity uses the session quantity. Incomplete or invalid state is
// refused with a field-level validation error where one applies.
func (s *Session) CartConfiguration(quantity int) (domain.CartLine, error) {
	const op = "configurator.cart_configuration"
	if err := s.lock(op); err != nil {
		return domain.CartLine{}, err
	}
	defer s.mu.Unlock()

	if quantity == 0 {
		quantity = s.quantity
	}

	var (
		v  *domain.ProductVariant
		cc cartconfig.Input
	)

	switch s.product.Kind {
	case domain.ProductKindBundle:
		fields := s.aggregator.Validate(s.lines)
		for key, msg := range s.aggregator.InputErrors(s.lines) {
			fields[key] = msg
		}
		if err := domain.ValidationErrors(op, fields); err != nil {
			return domain.CartLine{}, err
		}
		cc.BundleLines = s.aggregator.ConfigurationLines(s.lines)

	case domain.ProductKindParametric:
		if err := domain.ValidationErrors(op, inputErrors(s.machine, s.product.Axes)); err != nil {
			return domain.CartLine{}, err
		}
		sel := s.machine.Selection()
		cc.Parameters = sel.Values
		cc.Selections = sel.Chosen()

	default:
		if err := s.requireCompleteSelection(op); err != nil {
			return domain.CartLine{}, err
		}
		v = s.machine.Matched()
		if v == nil {
			v = s.confirmed
		}
		if v == nil && s.needsServerAvailability() {
			return domain.CartLine{}, domain.Invalid(op, "variant must be confirmed before adding to cart")
		}
		if v != nil && !v.IsActive() {
			return domain.CartLine{}, domain.Conflict(op, "selected variant is no longer available")
		}
		cc.Selections = s.machine.Selection().Chosen()
	}

	line, err := cartconfig.BuildLine(s.product.ID, v, quantity, cc)
	if err != nil {
		return domain.CartLine{}, err
	}
	s.opts.Metrics.CartConfigurationBuilt(string(s.product.Kind))
	return line, nil
}

// inputErrors reports missing and out-of-bounds inputs keyed by axis code.
func inputErrors(m *variant.Machine, axes []domain.VariantAxis) map[string]string {
	fields := m.RangeErrors()
	sel := m.Selection()
	for _, a := range axes {
		if a.IsDiscrete() {
			if sel.Options[a.AttributeCode] == "" {
				fields[a.AttributeCode] = "a choice is required"
			}
			continue
		}
		if _, ok := sel.Values[a.AttributeCode]; !ok {
			fields[a.AttributeCode] = "a value is required"
		}
	}
	return fields
}

// Close cancels every resolver: pending timers stop and in-flight
// responses become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	if s.parametric != nil {
		s.parametric.Close()
	}
	if s.bundlePrice != nil {
		s.bundlePrice.Close()
	}
	for _, comp := range s.components {
		comp.resolver.Close()
	}
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
