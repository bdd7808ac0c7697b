// Package priceclient talks to the pricing backend over HTTP.
package priceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/configurator/internal/domain"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 5 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// errEmptyResponse marks a 2xx response without a body.
var errEmptyResponse = errors.New("empty response body")

// Client implements domain.PriceService against the pricing backend.
// It never retries; the resolvers above it decide what happens next.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.PriceService = (*Client)(nil)

// =============================================================================
// WIRE TYPES
// =============================================================================

type availableResponse struct {
	Available map[string][]domain.AxisOption `json:"available"`
}

type selectVariantRequest struct {
	Selection map[string]string `json:"selection"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b errorBody) message() string {
	if b.Error.Message != "" {
		return b.Error.Message
	}
	return b.Message
}

// =============================================================================
// OPERATIONS
// =============================================================================

// AvailableAxisValues returns the options still reachable from selection.
func (c *Client) AvailableAxisValues(ctx context.Context, productID string, selection map[string]string) (map[string][]domain.AxisOption, error) {
	const op = "priceclient.available_axis_values"

	q := url.Values{}
	for code, option := range selection {
		if option != "" {
			q.Set("selection["+code+"]", option)
		}
	}

	var out availableResponse
	if err := c.do(ctx, op, http.MethodGet, c.productURL(productID, "available-axis-values", q), nil, &out); err != nil {
		return nil, err
	}
	return out.Available, nil
}

// SelectVariant asks the backend which variant a complete selection maps to.
// The backend answers with the bare variant; null or an empty body means no
// variant matches.
func (c *Client) SelectVariant(ctx context.Context, productID string, selection map[string]string) (*domain.ProductVariant, error) {
	const op = "priceclient.select_variant"

	var out *domain.ProductVariant
	body := selectVariantRequest{Selection: selection}
	err := c.do(ctx, op, http.MethodPost, c.productURL(productID, "select-variant", nil), body, &out)
	if err != nil && !errors.Is(err, errEmptyResponse) {
		return nil, err
	}
	if out == nil {
		return nil, domain.NotFound(op, "variant", productID)
	}
	return out, nil
}

// CalculateParametricPrice prices a formula-driven configuration.
func (c *Client) CalculateParametricPrice(ctx context.Context, req domain.ParametricPriceRequest) (*domain.ParametricPriceResult, error) {
	const op = "priceclient.parametric_price"

	var out domain.ParametricPriceResult
	if err := c.do(ctx, op, http.MethodPost, c.productURL(req.ProductID, "parametric-price", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CalculateBundlePrice prices a bundle.
func (c *Client) CalculateBundlePrice(ctx context.Context, req domain.BundlePriceRequest) (*domain.BundlePriceResult, error) {
	const op = "priceclient.bundle_price"

	var out domain.BundlePriceResult
	if err := c.do(ctx, op, http.MethodPost, c.productURL(req.BundleProductID, "bundle-price", nil), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) productURL(productID, action string, q url.Values) string {
	u := c.baseURL + "/products/" + url.PathEscape(productID) + "/" + action
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do performs one JSON round trip. Network failures and 5xx responses map
// to EUNAVAILABLE, other non-2xx responses to EINVALID.
func (c *Client) do(ctx context.Context, op, method, target string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return domain.Internal(err, op, "failed to encode price request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return domain.Internal(err, op, "failed to create price request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("price service request failed", "op", op, "error", err)
		return domain.Unavailable(err, op, "Price service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyResponse
		}
		return domain.Unavailable(err, op, "Price service returned an unreadable response")
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.message()
	cause := fmt.Errorf("price service status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))

	if resp.StatusCode >= 500 {
		c.logger.Warn("price service error", "op", op, "status", resp.StatusCode)
		if msg == "" {
			msg = "Price service unavailable"
		}
		return domain.Unavailable(cause, op, msg)
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.WrapError(cause, domain.EINVALID, op, msg)
}
