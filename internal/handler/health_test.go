package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/author-feed-service/internal/handler"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func newHealthEngine(db, cache handler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// no services: only health, docs and metrics routes are mounted
	handler.Register(r, handler.Deps{DB: db, Cache: cache})
	return r
}

func TestReadiness_OK(t *testing.T) {
	r := newHealthEngine(stubPinger{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, handler.APIV1Prefix+"/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReadiness_Unavailable(t *testing.T) {
	r := newHealthEngine(stubPinger{err: errors.New("db down")}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, handler.APIV1Prefix+"/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReadiness_CacheDownStillReady(t *testing.T) {
	r := newHealthEngine(stubPinger{}, stubPinger{err: errors.New("redis down")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Checks["cache"] != "redis down" || body.Checks["database"] != "ok" {
		t.Fatalf("unexpected checks: %v", body.Checks)
	}
}

func TestReadiness_NoDatabase(t *testing.T) {
	r := newHealthEngine(nil, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestLivenessRoot_OK(t *testing.T) {
	r := newHealthEngine(stubPinger{err: errors.New("db down")}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestHealth_NotFound(t *testing.T) {
	r := newHealthEngine(stubPinger{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestReadiness_MethodNotAllowed(t *testing.T) {
	r := newHealthEngine(stubPinger{}, nil)
	w := httptest.NewRecorder()
	// Gin by default returns 404 for unknown method if route only registered for GET.
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, handler.APIV1Prefix+"/health/ready", nil))
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 404 or 405, got %d", w.Code)
	}
}

func TestDocsAndMetrics(t *testing.T) {
	r := newHealthEngine(stubPinger{}, nil)
	for _, path := range []string{"/docs", "/openapi.yaml", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}
