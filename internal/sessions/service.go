package sessions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/outbox"
	"github.com/fieldtally/stocktake-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service administers counting sessions and the stock-item catalog.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionDTO, error)
	GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error)
	CloseSession(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, role enums.StaffRole) (*SessionDTO, error)
	UpsertStockItem(ctx context.Context, input UpsertStockItemInput) (*StockItemDTO, error)
	GetStockItem(ctx context.Context, itemCode string) (*StockItemDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the session administration service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, logg: logg}, nil
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session name required")
	}
	if !input.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mode must be standard, strict, or batch")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.SerialTracking && input.Mode == enums.CountModeBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial tracking cannot be combined with batch mode")
	}

	session := &models.CountSession{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(input.Name),
		Mode:           input.Mode,
		SerialTracking: input.SerialTracking,
		DamageTracking: input.DamageTracking,
		Status:         enums.SessionStatusOpen,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	s.logg.Info(s.logg.WithSessionID(ctx, session.ID.String()), "count session opened")
	return toSessionDTO(session), nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*SessionDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindSession(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return toSessionDTO(session), nil
}

func (s *service) CloseSession(ctx context.Context, id uuid.UUID, closedBy uuid.UUID, role enums.StaffRole) (*SessionDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if closedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var closed *SessionDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		affected, err := repo.CloseSession(ctx, id, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close session")
		}
		if affected == 0 {
			if _, err := repo.FindSession(ctx, id); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session already closed")
		}

		session, err := repo.FindSession(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload session")
		}
		closed = toSessionDTO(session)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionClosed,
			AggregateType: enums.AggregateCountSession,
			AggregateID:   session.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: closedBy, Role: string(role)},
			Data: payloads.SessionClosedEvent{
				SessionID: session.ID,
				ClosedBy:  closedBy,
				ClosedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *service) UpsertStockItem(ctx context.Context, input UpsertStockItemInput) (*StockItemDTO, error) {
	if strings.TrimSpace(input.ItemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.SystemQty.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "system quantity cannot be negative")
	}

	item := &models.StockItem{
		ItemCode:    strings.TrimSpace(input.ItemCode),
		Name:        strings.TrimSpace(input.Name),
		Category:    input.Category,
		SubCategory: input.SubCategory,
		MRP:         input.MRP,
		SystemQty:   input.SystemQty,
	}
	if err := s.repo.UpsertStockItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert stock item")
	}
	return toStockItemDTO(item), nil
}

func (s *service) GetStockItem(ctx context.Context, itemCode string) (*StockItemDTO, error) {
	if strings.TrimSpace(itemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	item, err := s.repo.FindStockItem(ctx, itemCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return toStockItemDTO(item), nil
}
