package sessions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/outbox"
)

type stubSessionsRepo struct {
	sessions map[uuid.UUID]*models.CountSession
	items    map[string]*models.StockItem
}

func newStubSessionsRepo() *stubSessionsRepo {
	return &stubSessionsRepo{
		sessions: make(map[uuid.UUID]*models.CountSession),
		items:    make(map[string]*models.StockItem),
	}
}

func (s *stubSessionsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubSessionsRepo) CreateSession(ctx context.Context, session *models.CountSession) error {
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *stubSessionsRepo) FindSession(ctx context.Context, id uuid.UUID) (*models.CountSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (s *stubSessionsRepo) CloseSession(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	session, ok := s.sessions[id]
	if !ok || session.Status != enums.SessionStatusOpen {
		return 0, nil
	}
	session.Status = enums.SessionStatusClosed
	session.ClosedAt = &at
	return 1, nil
}

func (s *stubSessionsRepo) UpsertStockItem(ctx context.Context, item *models.StockItem) error {
	copied := *item
	s.items[item.ItemCode] = &copied
	return nil
}

func (s *stubSessionsRepo) FindStockItem(ctx context.Context, itemCode string) (*models.StockItem, error) {
	item, ok := s.items[itemCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

type stubSessionsTxRunner struct{}

func (stubSessionsTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSessionsOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubSessionsOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newSessionsService(t *testing.T, repo *stubSessionsRepo) (Service, *stubSessionsOutbox) {
	t.Helper()
	ob := &stubSessionsOutbox{}
	logg := logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(repo, stubSessionsTxRunner{}, ob, logg)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc, ob
}

func TestCreateSession(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	session, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Name:           "warehouse A",
		Mode:           enums.CountModeStrict,
		DamageTracking: true,
		CreatedBy:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if session.Status != enums.SessionStatusOpen {
		t.Fatalf("expected open session got %s", session.Status)
	}
	if session.Mode != enums.CountModeStrict || !session.DamageTracking {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestCreateSessionRejectsSerialBatchCombination(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Name:           "warehouse A",
		Mode:           enums.CountModeBatch,
		SerialTracking: true,
		CreatedBy:      uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCloseSession(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, ob := newSessionsService(t, repo)

	created, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Name:      "warehouse A",
		Mode:      enums.CountModeStandard,
		CreatedBy: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	closedBy := uuid.New()
	closed, err := svc.CloseSession(context.Background(), created.ID, closedBy, enums.RoleSupervisor)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != enums.SessionStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed session got %+v", closed)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventSessionClosed {
		t.Fatalf("expected session closed event got %+v", ob.events)
	}

	// Closing again is a state conflict, not a second event.
	_, err = svc.CloseSession(context.Background(), created.ID, closedBy, enums.RoleSupervisor)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if len(ob.events) != 1 {
		t.Fatalf("expected a single event got %d", len(ob.events))
	}
}

func TestCloseSessionNotFound(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	_, err := svc.CloseSession(context.Background(), uuid.New(), uuid.New(), enums.RoleSupervisor)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestUpsertStockItem(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	item, err := svc.UpsertStockItem(context.Background(), UpsertStockItemInput{
		ItemCode:  " SKU1 ",
		Name:      "Widget",
		SystemQty: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if item.ItemCode != "SKU1" {
		t.Fatalf("expected trimmed item code got %q", item.ItemCode)
	}

	// Upsert replaces the quantity.
	item, err = svc.UpsertStockItem(context.Background(), UpsertStockItemInput{
		ItemCode:  "SKU1",
		Name:      "Widget",
		SystemQty: decimal.NewFromInt(12),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !item.SystemQty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected qty 12 got %s", item.SystemQty)
	}

	fetched, err := svc.GetStockItem(context.Background(), "SKU1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !fetched.SystemQty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected stored qty 12 got %s", fetched.SystemQty)
	}
}

func TestUpsertStockItemNegativeQty(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	_, err := svc.UpsertStockItem(context.Background(), UpsertStockItemInput{
		ItemCode:  "SKU1",
		Name:      "Widget",
		SystemQty: decimal.NewFromInt(-1),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestGetStockItemNotFound(t *testing.T) {
	repo := newStubSessionsRepo()
	svc, _ := newSessionsService(t, repo)

	_, err := svc.GetStockItem(context.Background(), "SKU-MISSING")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
