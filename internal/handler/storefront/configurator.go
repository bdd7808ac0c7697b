package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/configurator/internal/configurator"
	"github.com/dukerupert/configurator/internal/domain"
	"github.com/dukerupert/configurator/internal/handler"
	"github.com/dukerupert/configurator/internal/middleware"
)

// DefaultPriceWait bounds GET .../price?wait=true.
const DefaultPriceWait = 5 * time.Second

// ConfiguratorHandler exposes configurator sessions over JSON.
type ConfiguratorHandler struct {
	manager   *configurator.Manager
	cart      domain.CartPublisher
	validate  *validator.Validate
	priceWait time.Duration
	logger    *slog.Logger
}

// NewConfiguratorHandler creates a configurator handler. A zero priceWait
// uses DefaultPriceWait.
func NewConfiguratorHandler(manager *configurator.Manager, cart domain.CartPublisher, priceWait time.Duration, logger *slog.Logger) *ConfiguratorHandler {
	if priceWait <= 0 {
		priceWait = DefaultPriceWait
	}
	if logger == nil {
		logger = slog.Default()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ConfiguratorHandler{
		manager:   manager,
		cart:      cart,
		validate:  validate,
		priceWait: priceWait,
		logger:    logger,
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

type openRequest struct {
	Product string `json:"product" validate:"required,max=200"`
	Variant string `json:"variant" validate:"omitempty,max=200"`
}

type axisRequest struct {
	Value string `json:"value" validate:"omitempty,max=200"`
}

type parameterRequest struct {
	Value *float64 `json:"value"`
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=10000"`
}

type componentRequest struct {
	Quantity   *int                `json:"quantity" validate:"omitempty,min=0,max=10000"`
	Parameters map[string]*float64 `json:"parameters"`
	Selections map[string]string   `json:"selections" validate:"omitempty,dive,max=200"`
}

type cartRequest struct {
	Quantity int `json:"quantity" validate:"omitempty,min=1,max=10000"`
}

// decode reads a JSON body into dst and validates it. An empty body leaves
// dst at its zero value.
func (h *ConfiguratorHandler) decode(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.WrapError(err, domain.ETOOLARGE, op, "Request body too large")
		}
		return domain.WrapError(err, domain.EINVALID, op, "Request body is not valid JSON")
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.WrapError(err, domain.EINVALID, op, "Request body is invalid")
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		return domain.ValidationErrors(op, fields)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "a value is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

// Open handles POST /configurator. The variant may also come from the
// ?variant= query parameter of a shared product link.
func (h *ConfiguratorHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := h.decode(r, "configurator.open", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Variant == "" {
		req.Variant = r.URL.Query().Get("variant")
	}

	s, err := h.manager.Open(r.Context(), req.Product, req.Variant)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context(), h.logger).Info("configurator opened",
		"session_id", s.ID(),
		"product_id", s.Product().ID,
	)
	h.respondView(w, r, s, http.StatusCreated)
}

// Show handles GET /configurator/{id}
func (h *ConfiguratorHandler) Show(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// Close handles DELETE /configurator/{id}
func (h *ConfiguratorHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(r.PathValue("id")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SELECTION
// =============================================================================

// SetAxis handles POST /configurator/{id}/axes/{code}. An empty value
// clears the axis.
func (h *ConfiguratorHandler) SetAxis(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req axisRequest
	if err := h.decode(r, "configurator.set_axis", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := s.SetAxis(r.Context(), r.PathValue("code"), req.Value); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// Reset handles POST /configurator/{id}/reset
func (h *ConfiguratorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ResetAll(r.Context()); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// SetParameter handles POST /configurator/{id}/parameters/{code}. A null
// value clears the parameter.
func (h *ConfiguratorHandler) SetParameter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req parameterRequest
	if err := h.decode(r, "configurator.set_parameter", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := s.SetParameter(r.PathValue("code"), req.Value); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// SetQuantity handles POST /configurator/{id}/quantity
func (h *ConfiguratorHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := h.decode(r, "configurator.set_quantity", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := s.SetQuantity(req.Quantity); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// UpdateComponent handles POST /configurator/{id}/components/{componentId}.
// Quantity, parameters and selections are applied in that order; the
// first failure aborts the rest.
func (h *ConfiguratorHandler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req componentRequest
	if err := h.decode(r, "configurator.update_component", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	componentID := r.PathValue("componentId")
	if req.Quantity != nil {
		if err := s.SetComponentQuantity(componentID, *req.Quantity); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	for code, value := range req.Parameters {
		if err := s.SetComponentParameter(componentID, code, value); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	for code, value := range req.Selections {
		if err := s.SetComponentSelection(componentID, code, value); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	h.respondView(w, r, s, http.StatusOK)
}

// Confirm handles POST /configurator/{id}/confirm
func (h *ConfiguratorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.ConfirmVariant(r.Context()); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.respondView(w, r, s, http.StatusOK)
}

// =============================================================================
// PRICE AND CART
// =============================================================================

// Price handles GET /configurator/{id}/price. With ?wait=true the response
// is held until pricing settles or the wait bound passes.
func (h *ConfiguratorHandler) Price(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		var err error
		if wait, err = strconv.ParseBool(raw); err != nil {
			handler.ErrorResponse(w, r, domain.NewValidationError("configurator.price", "wait", "must be true or false"))
			return
		}
	}

	ctx := r.Context()
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.priceWait)
		defer cancel()
	}

	price, err := s.Price(ctx, wait)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, price)
}

// AddToCart handles POST /configurator/{id}/cart. The finished line is
// published to the cart subsystem and echoed back.
func (h *ConfiguratorHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := h.decode(r, "configurator.add_to_cart", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	line, err := s.CartConfiguration(req.Quantity)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := h.cart.Publish(r.Context(), line); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context(), h.logger).Info("configured line added to cart",
		"session_id", s.ID(),
		"product_id", line.ProductID,
		"sku", line.SKU,
		"quantity", line.Quantity,
	)
	handler.JSON(w, http.StatusCreated, line)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *ConfiguratorHandler) session(w http.ResponseWriter, r *http.Request) (*configurator.Session, bool) {
	s, err := h.manager.Get(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *ConfiguratorHandler) respondView(w http.ResponseWriter, r *http.Request, s *configurator.Session, status int) {
	view, err := s.View()
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, status, view)
}
