package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/internal/sessions"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
)

type stubSessionsService struct {
	create   func(ctx context.Context, input sessions.CreateSessionInput) (*sessions.SessionDTO, error)
	get      func(ctx context.Context, id uuid.UUID) (*sessions.SessionDTO, error)
	close    func(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, role enums.StaffRole) (*sessions.SessionDTO, error)
	upsert   func(ctx context.Context, input sessions.UpsertStockItemInput) (*sessions.StockItemDTO, error)
	getStock func(ctx context.Context, itemCode string) (*sessions.StockItemDTO, error)
}

func (s *stubSessionsService) CreateSession(ctx context.Context, input sessions.CreateSessionInput) (*sessions.SessionDTO, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return &sessions.SessionDTO{}, nil
}

func (s *stubSessionsService) GetSession(ctx context.Context, id uuid.UUID) (*sessions.SessionDTO, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &sessions.SessionDTO{}, nil
}

func (s *stubSessionsService) CloseSession(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, role enums.StaffRole) (*sessions.SessionDTO, error) {
	if s.close != nil {
		return s.close(ctx, id, closedBy, role)
	}
	return &sessions.SessionDTO{}, nil
}

func (s *stubSessionsService) UpsertStockItem(ctx context.Context, input sessions.UpsertStockItemInput) (*sessions.StockItemDTO, error) {
	if s.upsert != nil {
		return s.upsert(ctx, input)
	}
	return &sessions.StockItemDTO{}, nil
}

func (s *stubSessionsService) GetStockItem(ctx context.Context, itemCode string) (*sessions.StockItemDTO, error) {
	if s.getStock != nil {
		return s.getStock(ctx, itemCode)
	}
	return &sessions.StockItemDTO{}, nil
}

func TestCreateSessionParsesMode(t *testing.T) {
	var captured sessions.CreateSessionInput
	svc := &stubSessionsService{
		create: func(ctx context.Context, input sessions.CreateSessionInput) (*sessions.SessionDTO, error) {
			captured = input
			return &sessions.SessionDTO{ID: uuid.New(), Name: input.Name}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/sessions", "/api/v1/sessions", nil,
		`{"name":"  march floor count ","mode":"strict","damage_tracking":true}`)
	resp := httptest.NewRecorder()
	CreateSession(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Mode != enums.CountModeStrict {
		t.Fatalf("unexpected mode %s", captured.Mode)
	}
	if captured.Name != "march floor count" {
		t.Fatalf("name not trimmed: %q", captured.Name)
	}
	if !captured.DamageTracking {
		t.Fatalf("damage tracking flag lost")
	}
	if captured.CreatedBy == uuid.Nil {
		t.Fatalf("creator should come from the auth context")
	}
}

func TestCreateSessionRejectsUnknownMode(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/sessions", "/api/v1/sessions", nil,
		`{"name":"bad","mode":"freestyle"}`)
	resp := httptest.NewRecorder()
	CreateSession(&stubSessionsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubSessionsService{
		get: func(ctx context.Context, id uuid.UUID) (*sessions.SessionDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/sessions/"+sessionID.String(),
		"/api/v1/sessions/{sessionId}", map[string]string{"sessionId": sessionID.String()}, "")
	resp := httptest.NewRecorder()
	GetSession(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestUpsertStockItemUsesPathItemCode(t *testing.T) {
	var captured sessions.UpsertStockItemInput
	svc := &stubSessionsService{
		upsert: func(ctx context.Context, input sessions.UpsertStockItemInput) (*sessions.StockItemDTO, error) {
			captured = input
			return &sessions.StockItemDTO{ItemCode: input.ItemCode}, nil
		},
	}

	req := authedRequest(http.MethodPut, "/api/v1/items/WIDGET-9", "/api/v1/items/{itemCode}",
		map[string]string{"itemCode": "WIDGET-9"},
		`{"name":"Nine Hole Widget","system_qty":"12","mrp":"99.50"}`)
	resp := httptest.NewRecorder()
	UpsertStockItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ItemCode != "WIDGET-9" {
		t.Fatalf("unexpected item code %q", captured.ItemCode)
	}
	if !captured.SystemQty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected system qty %s", captured.SystemQty)
	}

	var envelope struct {
		Data sessions.StockItemDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCode != "WIDGET-9" {
		t.Fatalf("unexpected response item code %q", envelope.Data.ItemCode)
	}
}

func TestCloseSessionAlreadyClosed(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubSessionsService{
		close: func(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, role enums.StaffRole) (*sessions.SessionDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already closed")
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/sessions/"+sessionID.String()+"/close",
		"/api/v1/sessions/{sessionId}/close", map[string]string{"sessionId": sessionID.String()}, "")
	resp := httptest.NewRecorder()
	CloseSession(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
