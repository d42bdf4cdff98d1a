package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldtally/stocktake-backend/pkg/config"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

type fakeLimiter struct {
	count int64
	err   error
	limit int64
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.count++
	f.limit = limit
	return f.count <= limit, f.count, nil
}

func submitRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/counts", nil)
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	return req
}

func TestSubmitRateLimitBlocksOverLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	cfg := config.RateLimitConfig{SubmitWindow: time.Minute, SubmitLimit: 2}

	calls := 0
	handler := SubmitRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, submitRequest("counter-1"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201 got %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, submitRequest("counter-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler called twice, got %d", calls)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit code, got %s", envelope.Error.Code)
	}
}

func TestSubmitRateLimitFailsOpenOnStoreError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	cfg := config.RateLimitConfig{SubmitWindow: time.Minute, SubmitLimit: 1}

	handler := SubmitRateLimit(cfg, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, submitRequest("counter-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected fail-open 201 got %d", rec.Code)
	}
}

func TestSubmitRateLimitSkipsWithoutStore(t *testing.T) {
	cfg := config.RateLimitConfig{SubmitWindow: time.Minute, SubmitLimit: 1}

	handler := SubmitRateLimit(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, submitRequest("counter-1"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected passthrough 201 got %d", rec.Code)
		}
	}
}
