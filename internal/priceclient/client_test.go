package priceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/configurator/internal/domain"
)

func TestClient_AvailableAxisValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/tee/available-axis-values", r.URL.Path)
		assert.Equal(t, "blue", r.URL.Query().Get("selection[color]"))
		assert.False(t, r.URL.Query().Has("selection[size]"), "cleared axes are not sent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available":{"size":[{"code":"S","position":1}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	got, err := c.AvailableAxisValues(context.Background(), "tee", map[string]string{"color": "blue", "size": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string][]domain.AxisOption{"size": {{Code: "S", Position: 1}}}, got)
}

func TestClient_SelectVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products/tee/select-variant", r.URL.Path)

		var body map[string]map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"color": "blue", "size": "S"}, body["selection"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"v3","sku":"tee-blue-s","status":"active","axisValues":{"color":"blue","size":"S"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	v, err := c.SelectVariant(context.Background(), "tee", map[string]string{"color": "blue", "size": "S"})
	require.NoError(t, err)
	assert.Equal(t, "v3", v.ID)
	assert.Equal(t, "tee-blue-s", v.SKU)
	assert.Equal(t, map[string]string{"color": "blue", "size": "S"}, v.AxisValues)
	assert.True(t, v.IsActive())
}

func TestClient_SelectVariantNoMatch(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"null", http.StatusOK, `null`},
		{"empty body", http.StatusOK, ``},
		{"no content", http.StatusNoContent, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v, err := New(srv.URL).SelectVariant(context.Background(), "tee", map[string]string{"color": "red"})
			assert.Nil(t, v)
			assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
		})
	}
}

func TestClient_SelectVariantUnreadable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).SelectVariant(context.Background(), "tee", map[string]string{"color": "red"})
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestClient_ParametricPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/blind/parametric-price", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"parameters": map[string]any{"width": 120.0},
			"selections": map[string]any{"fabric": "linen"},
			"quantity":   2.0,
		}, body)

		_, _ = w.Write([]byte(`{"unitPrice":"60.00","totalPrice":"120.00","sku":"BLIND-120","breakdown":{"base":"40.00"}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).CalculateParametricPrice(context.Background(), domain.ParametricPriceRequest{
		ProductID:  "blind",
		Parameters: map[string]float64{"width": 120},
		Selections: map[string]string{"fabric": "linen"},
		Quantity:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, "120", res.TotalPrice.String())
	assert.Equal(t, "BLIND-120", res.SKU)
	assert.JSONEq(t, `"40.00"`, string(res.Breakdown["base"]))
}

func TestClient_BundlePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/kit/bundle-price", r.URL.Path)

		var body struct {
			Components []map[string]any `json:"components"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Components, 2) {
			assert.Equal(t, "panel", body.Components[0]["component_id"])
			assert.NotContains(t, body.Components[0], "parameters")
			assert.Contains(t, body.Components[1], "parameters")
		}

		_, _ = w.Write([]byte(`{"total":"250","components":[{"componentId":"panel","sku":"PANEL","quantity":2,"lineTotal":"80"}]}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).CalculateBundlePrice(context.Background(), domain.BundlePriceRequest{
		BundleProductID: "kit",
		Components: []domain.BundlePriceLine{
			{ComponentID: "panel", Quantity: 2},
			{ComponentID: "blind", Quantity: 1, Parameters: map[string]float64{"width": 100}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "250", res.Total.String())
	require.Len(t, res.Components, 1)
	assert.Equal(t, "PANEL", res.Components[0].SKU)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"bad request with nested message", http.StatusUnprocessableEntity, `{"error":{"message":"width out of range"}}`, domain.EINVALID, "width out of range"},
		{"bad request with flat message", http.StatusBadRequest, `{"message":"unknown fabric"}`, domain.EINVALID, "unknown fabric"},
		{"not found without body", http.StatusNotFound, ``, domain.EINVALID, "Not Found"},
		{"server error", http.StatusInternalServerError, `boom`, domain.EUNAVAILABLE, "Price service unavailable"},
		{"bad gateway with message", http.StatusBadGateway, `{"message":"upstream down"}`, domain.EUNAVAILABLE, "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).CalculateParametricPrice(context.Background(), domain.ParametricPriceRequest{ProductID: "blind", Quantity: 1})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Equal(t, tt.wantMsg, domain.ErrorMessage(err))
			assert.Equal(t, "priceclient.parametric_price", domain.ErrorOp(err))
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).AvailableAxisValues(context.Background(), "tee", nil)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).
		CalculateBundlePrice(context.Background(), domain.BundlePriceRequest{BundleProductID: "kit"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestClient_CallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).SelectVariant(ctx, "tee", map[string]string{"color": "red"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}
