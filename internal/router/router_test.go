package router

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouter_MethodsAndPathValues(t *testing.T) {
	r := New()

	var got string
	r.Get("/configurator/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = "get " + req.PathValue("id")
	})
	r.Post("/configurator/{id}/axes/{code}", func(w http.ResponseWriter, req *http.Request) {
		got = "post " + req.PathValue("id") + " " + req.PathValue("code")
	})
	r.Delete("/configurator/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = "delete " + req.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		method     string
		path       string
		want       string
		wantStatus int
	}{
		{http.MethodGet, "/configurator/s1", "get s1", http.StatusOK},
		{http.MethodPost, "/configurator/s1/axes/color", "post s1 color", http.StatusOK},
		{http.MethodDelete, "/configurator/s2", "delete s2", http.StatusNoContent},
		{http.MethodPut, "/configurator/s1", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got = ""
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	var order []string

	middleware1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "before1")
			next.ServeHTTP(w, r)
			order = append(order, "after1")
		})
	}

	middleware2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "before2")
			next.ServeHTTP(w, r)
			order = append(order, "after2")
		})
	}

	r := New(middleware1)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}, middleware2)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	expected := []string{"before1", "before2", "handler", "after2", "after1"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d elements, got %d", len(expected), len(order))
	}

	for i, v := range expected {
		if order[i] != v {
			t.Errorf("position %d: expected %s, got %s", i, v, order[i])
		}
	}
}

func TestRouter_Group(t *testing.T) {
	globalCalled := false
	groupCalled := false

	globalMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			globalCalled = true
			next.ServeHTTP(w, r)
		})
	}

	groupMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groupCalled = true
			next.ServeHTTP(w, r)
		})
	}

	r := New(globalMiddleware)
	group := r.Group(groupMiddleware)

	group.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if !globalCalled {
		t.Error("global middleware was not called")
	}
	if !groupCalled {
		t.Error("group middleware was not called")
	}
}

func TestRouter_GroupDoesNotLeak(t *testing.T) {
	groupCalls := 0
	groupMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groupCalls++
			next.ServeHTTP(w, r)
		})
	}

	r := New()
	r.Group(groupMiddleware).Post("/limited", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/open", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/open", nil))
	if groupCalls != 0 {
		t.Fatalf("group middleware ran for a route outside the group")
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/limited", nil))
	if groupCalls != 1 {
		t.Errorf("expected group middleware to run once, ran %d times", groupCalls)
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := New(Recovery(slog.New(slog.NewTextHandler(&buf, nil))))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal"`) {
		t.Errorf("expected JSON internal error, got %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestCORS(t *testing.T) {
	r := New()
	r.Post("/configurator", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h := Wrap(r, CORS([]string{"https://shop.example"}))

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/configurator", nil)
		req.Header.Set("Origin", "https://shop.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
			t.Errorf("unexpected allow origin %q", got)
		}
	})

	t.Run("request from other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/configurator", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow origin, got %q", got)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := New(Logger(slog.New(slog.NewTextHandler(&buf, nil))))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	out := buf.String()
	if !strings.Contains(out, "path=/health") || !strings.Contains(out, "status=200") {
		t.Errorf("unexpected log line %q", out)
	}
}

func TestSplitOrigins(t *testing.T) {
	got := SplitOrigins(" https://a.example, ,https://b.example ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", got)
	}
	if SplitOrigins("") != nil {
		t.Error("expected nil for empty input")
	}
}
