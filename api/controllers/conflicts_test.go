package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/fieldtally/stocktake-backend/internal/conflicts"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
)

type stubConflictsService struct {
	list         func(ctx context.Context, input conflicts.ListInput) (*conflicts.ConflictList, error)
	stats        func(ctx context.Context) (*conflicts.ConflictStats, error)
	resolveOne   func(ctx context.Context, input conflicts.ResolveInput) (*conflicts.ConflictDTO, error)
	resolveBatch func(ctx context.Context, input conflicts.ResolveBatchInput) (*conflicts.BatchResult, error)
}

func (s *stubConflictsService) List(ctx context.Context, input conflicts.ListInput) (*conflicts.ConflictList, error) {
	if s.list != nil {
		return s.list(ctx, input)
	}
	return &conflicts.ConflictList{}, nil
}

func (s *stubConflictsService) Stats(ctx context.Context) (*conflicts.ConflictStats, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return &conflicts.ConflictStats{}, nil
}

func (s *stubConflictsService) ResolveOne(ctx context.Context, input conflicts.ResolveInput) (*conflicts.ConflictDTO, error) {
	if s.resolveOne != nil {
		return s.resolveOne(ctx, input)
	}
	return &conflicts.ConflictDTO{}, nil
}

func (s *stubConflictsService) ResolveBatch(ctx context.Context, input conflicts.ResolveBatchInput) (*conflicts.BatchResult, error) {
	if s.resolveBatch != nil {
		return s.resolveBatch(ctx, input)
	}
	return &conflicts.BatchResult{}, nil
}

func TestListConflictsForwardsFilter(t *testing.T) {
	svc := &stubConflictsService{
		list: func(ctx context.Context, input conflicts.ListInput) (*conflicts.ConflictList, error) {
			if input.Status != conflicts.FilterPending {
				t.Fatalf("unexpected status filter %q", input.Status)
			}
			if input.Limit != 10 {
				t.Fatalf("unexpected limit %d", input.Limit)
			}
			return &conflicts.ConflictList{Conflicts: []conflicts.ConflictDTO{{ID: uuid.New()}}}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/conflicts?status=pending&limit=10", "/api/v1/conflicts", nil, "")
	resp := httptest.NewRecorder()
	ListConflicts(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data conflicts.ConflictList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Conflicts) != 1 {
		t.Fatalf("unexpected conflict count %d", len(envelope.Data.Conflicts))
	}
}

func TestResolveConflictStampsActorFromContext(t *testing.T) {
	conflictID := uuid.New()
	var captured conflicts.ResolveInput
	svc := &stubConflictsService{
		resolveOne: func(ctx context.Context, input conflicts.ResolveInput) (*conflicts.ConflictDTO, error) {
			captured = input
			return &conflicts.ConflictDTO{ID: input.ConflictID, Status: "resolved"}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/conflicts/"+conflictID.String()+"/resolve",
		"/api/v1/conflicts/{conflictId}/resolve", map[string]string{"conflictId": conflictID.String()},
		`{"resolution":"accept_local","note":"recount verified"}`)
	resp := httptest.NewRecorder()
	ResolveConflict(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ConflictID != conflictID {
		t.Fatalf("conflict id not forwarded")
	}
	if captured.ActorID == uuid.Nil {
		t.Fatalf("actor id should come from the auth context")
	}
	if captured.Note == nil || *captured.Note != "recount verified" {
		t.Fatalf("note not forwarded")
	}
}

func TestResolveConflictRejectsUnknownResolution(t *testing.T) {
	conflictID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/conflicts/"+conflictID.String()+"/resolve",
		"/api/v1/conflicts/{conflictId}/resolve", map[string]string{"conflictId": conflictID.String()},
		`{"resolution":"split_the_difference"}`)
	resp := httptest.NewRecorder()
	ResolveConflict(&stubConflictsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestResolveConflictBatchReturnsPartialResult(t *testing.T) {
	okID := uuid.New()
	failedID := uuid.New()
	svc := &stubConflictsService{
		resolveBatch: func(ctx context.Context, input conflicts.ResolveBatchInput) (*conflicts.BatchResult, error) {
			if len(input.ConflictIDs) != 2 {
				t.Fatalf("unexpected id count %d", len(input.ConflictIDs))
			}
			return &conflicts.BatchResult{
				Succeeded: []uuid.UUID{okID},
				Failed: map[uuid.UUID]conflicts.BatchFailure{
					failedID: {Code: string(pkgerrors.CodeStateConflict), Message: "conflict already resolved"},
				},
			}, nil
		},
	}

	body := `{"conflict_ids":["` + okID.String() + `","` + failedID.String() + `"],"resolution":"accept_server"}`
	req := authedRequest(http.MethodPost, "/api/v1/conflicts/resolve-batch", "/api/v1/conflicts/resolve-batch", nil, body)
	resp := httptest.NewRecorder()
	ResolveConflictBatch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data conflicts.BatchResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Succeeded) != 1 || envelope.Data.Succeeded[0] != okID {
		t.Fatalf("unexpected succeeded set %+v", envelope.Data.Succeeded)
	}
	failure, ok := envelope.Data.Failed[failedID]
	if !ok {
		t.Fatalf("expected failure entry for %s", failedID)
	}
	if failure.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected failure code %s", failure.Code)
	}
}

func TestResolveConflictBatchRejectsEmptyIDs(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/conflicts/resolve-batch", "/api/v1/conflicts/resolve-batch", nil,
		`{"conflict_ids":[],"resolution":"accept_local"}`)
	resp := httptest.NewRecorder()
	ResolveConflictBatch(&stubConflictsService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
