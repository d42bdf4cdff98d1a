package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/api/middleware"
	"github.com/fieldtally/stocktake-backend/internal/counts"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
)

type stubCountsService struct {
	check  func(ctx context.Context, sessionID uuid.UUID, itemCode string) (*counts.DuplicateOutcome, error)
	submit func(ctx context.Context, input counts.SubmitInput) (*counts.CountLineDTO, error)
}

func (s *stubCountsService) CheckItemCounted(ctx context.Context, sessionID uuid.UUID, itemCode string) (*counts.DuplicateOutcome, error) {
	if s.check != nil {
		return s.check(ctx, sessionID, itemCode)
	}
	return &counts.DuplicateOutcome{}, nil
}

func (s *stubCountsService) Submit(ctx context.Context, input counts.SubmitInput) (*counts.CountLineDTO, error) {
	if s.submit != nil {
		return s.submit(ctx, input)
	}
	return &counts.CountLineDTO{}, nil
}

func authedRequest(method, target, pattern string, params map[string]string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	for key, value := range params {
		rc.URLParams.Add(key, value)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.RoleCounter))
	return req.WithContext(ctx)
}

func TestSubmitCountPassesDecisionsThrough(t *testing.T) {
	sessionID := uuid.New()
	lineID := uuid.New()
	var captured counts.SubmitInput
	svc := &stubCountsService{
		submit: func(ctx context.Context, input counts.SubmitInput) (*counts.CountLineDTO, error) {
			captured = input
			return &counts.CountLineDTO{ID: lineID, SessionID: input.Draft.SessionID, CountedQty: input.Draft.Quantity}, nil
		},
	}

	body := `{"item_code":"WIDGET-1","quantity":"5","variance_decision":"confirm","duplicate_decision":"add_to_existing","target_line_id":"` + lineID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/counts",
		"/api/v1/sessions/{sessionId}/counts", map[string]string{"sessionId": sessionID.String()}, body)
	req.Header.Set("Idempotency-Key", "tok-1")

	resp := httptest.NewRecorder()
	SubmitCount(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Draft.SessionID != sessionID {
		t.Fatalf("session id not wired into draft")
	}
	if captured.Draft.ItemCode != "WIDGET-1" {
		t.Fatalf("unexpected item code %q", captured.Draft.ItemCode)
	}
	if !captured.Draft.Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected quantity %s", captured.Draft.Quantity)
	}
	if captured.IdempotencyToken != "tok-1" {
		t.Fatalf("idempotency token not forwarded")
	}

	decider, ok := captured.Decider.(counts.RequestDecider)
	if !ok {
		t.Fatalf("expected request decider, got %T", captured.Decider)
	}
	if decider.Variance == nil || *decider.Variance != enums.VarianceConfirm {
		t.Fatalf("variance decision not parsed")
	}
	if decider.Duplicate == nil || *decider.Duplicate != enums.DuplicateAddToExisting {
		t.Fatalf("duplicate decision not parsed")
	}
	if decider.TargetLineID == nil || *decider.TargetLineID != lineID {
		t.Fatalf("target line id not parsed")
	}
}

func TestSubmitCountRequiresIdempotencyKey(t *testing.T) {
	sessionID := uuid.New()
	var calls int
	svc := &stubCountsService{
		submit: func(ctx context.Context, input counts.SubmitInput) (*counts.CountLineDTO, error) {
			calls++
			return &counts.CountLineDTO{}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/counts",
		"/api/v1/sessions/{sessionId}/counts", map[string]string{"sessionId": sessionID.String()},
		`{"item_code":"WIDGET-1","quantity":"5"}`)

	resp := httptest.NewRecorder()
	SubmitCount(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("service should not be called without a token")
	}
}

func TestSubmitCountDecisionRequiredSurfacesPrompt(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubCountsService{
		submit: func(ctx context.Context, input counts.SubmitInput) (*counts.CountLineDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDecision, "variance confirmation required").
				WithDetails(map[string]any{"prompt": "variance"})
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/counts",
		"/api/v1/sessions/{sessionId}/counts", map[string]string{"sessionId": sessionID.String()},
		`{"item_code":"WIDGET-1","quantity":"7"}`)
	req.Header.Set("Idempotency-Key", "tok-2")

	resp := httptest.NewRecorder()
	SubmitCount(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeDecision) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
	if envelope.Error.Details["prompt"] != "variance" {
		t.Fatalf("prompt details missing from response")
	}
}

func TestSubmitCountRejectsUnknownDecision(t *testing.T) {
	sessionID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/counts",
		"/api/v1/sessions/{sessionId}/counts", map[string]string{"sessionId": sessionID.String()},
		`{"item_code":"WIDGET-1","quantity":"5","variance_decision":"maybe"}`)
	req.Header.Set("Idempotency-Key", "tok-3")

	resp := httptest.NewRecorder()
	SubmitCount(&stubCountsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckItemCounted(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubCountsService{
		check: func(ctx context.Context, gotSession uuid.UUID, itemCode string) (*counts.DuplicateOutcome, error) {
			if gotSession != sessionID {
				t.Fatalf("unexpected session id %s", gotSession)
			}
			if itemCode != "WIDGET-1" {
				t.Fatalf("unexpected item code %q", itemCode)
			}
			return &counts.DuplicateOutcome{AlreadyCounted: true, Lines: []counts.CountLineDTO{{ID: uuid.New()}}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String()+"/items/WIDGET-1/counted",
		"/api/v1/sessions/{sessionId}/items/{itemCode}/counted",
		map[string]string{"sessionId": sessionID.String(), "itemCode": "WIDGET-1"}, "")

	resp := httptest.NewRecorder()
	CheckItemCounted(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data counts.DuplicateOutcome `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.AlreadyCounted || len(envelope.Data.Lines) != 1 {
		t.Fatalf("unexpected outcome %+v", envelope.Data)
	}
}
