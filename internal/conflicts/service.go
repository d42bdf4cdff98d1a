package conflicts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/metrics"
	"github.com/fieldtally/stocktake-backend/pkg/outbox"
	"github.com/fieldtally/stocktake-backend/pkg/outbox/payloads"
	"github.com/fieldtally/stocktake-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service reviews sync conflicts: listing, stats, and one-shot resolution.
type Service interface {
	List(ctx context.Context, input ListInput) (*ConflictList, error)
	Stats(ctx context.Context) (*ConflictStats, error)
	ResolveOne(ctx context.Context, input ResolveInput) (*ConflictDTO, error)
	ResolveBatch(ctx context.Context, input ResolveBatchInput) (*BatchResult, error)
}

// ListInput selects and pages a conflict listing.
type ListInput struct {
	Status StatusFilter
	Limit  int
	Cursor string
}

// ResolveInput resolves a single conflict. ResolvedBy and the resolution time
// are stamped server-side from the actor and clock, never from the request.
type ResolveInput struct {
	ConflictID uuid.UUID
	Resolution enums.ConflictResolution
	Note       *string
	ActorID    uuid.UUID
	ActorRole  enums.StaffRole
}

// ResolveBatchInput applies one verdict across many conflicts independently.
type ResolveBatchInput struct {
	ConflictIDs []uuid.UUID
	Resolution  enums.ConflictResolution
	Note        *string
	ActorID     uuid.UUID
	ActorRole   enums.StaffRole
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.ReconciliationMetrics
	logg    *logger.Logger
}

// NewService builds the conflict review service.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, m *metrics.ReconciliationMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("conflicts repository required")
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
	return &service{repo: repo, tx: tx, outbox: ob, metrics: m, logg: logg}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ConflictList, error) {
	filter := input.Status
	if filter == "" {
		filter = FilterAll
	}
	if !filter.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be pending, resolved, or all")
	}

	// Reject garbage cursors before they reach the repository, otherwise the
	// parse failure surfaces as a dependency error.
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cursor is not valid")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	conflicts, err := s.repo.List(ctx, filter, pagination.Params{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conflicts")
	}

	list := &ConflictList{}
	if len(conflicts) > limit {
		conflicts = conflicts[:limit]
		last := conflicts[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Conflicts = toConflictDTOs(conflicts)
	return list, nil
}

func (s *service) Stats(ctx context.Context) (*ConflictStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "conflict stats")
	}
	return stats, nil
}

func (s *service) ResolveOne(ctx context.Context, input ResolveInput) (*ConflictDTO, error) {
	if input.ConflictID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conflict id required")
	}
	if !input.Resolution.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution must be accept_local or accept_server")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var resolved *ConflictDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		affected, err := repo.Resolve(ctx, input.ConflictID, input.Resolution, input.Note, input.ActorID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve conflict")
		}
		if affected == 0 {
			if _, err := repo.FindByID(ctx, input.ConflictID); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "conflict not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conflict")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "conflict already resolved")
		}

		conflict, err := repo.FindByID(ctx, input.ConflictID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload conflict")
		}
		resolved = toConflictDTO(conflict)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSyncConflictResolved,
			AggregateType: enums.AggregateSyncConflict,
			AggregateID:   conflict.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(input.ActorRole)},
			Data: payloads.SyncConflictResolvedEvent{
				ConflictID: conflict.ID,
				SessionID:  conflict.SessionID,
				ItemCode:   conflict.ItemCode,
				Resolution: input.Resolution,
				ResolvedBy: input.ActorID,
				ResolvedAt: now,
			},
		})
	})
	if err != nil {
		s.metrics.IncResolution(string(input.Resolution), "failed")
		return nil, err
	}

	s.metrics.IncResolution(string(input.Resolution), "resolved")
	return resolved, nil
}

// ResolveBatch applies the verdict to every id independently. There is no
// cross-record transaction: one failure never rolls back a sibling.
func (s *service) ResolveBatch(ctx context.Context, input ResolveBatchInput) (*BatchResult, error) {
	if len(input.ConflictIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one conflict id required")
	}
	if !input.Resolution.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution must be accept_local or accept_server")
	}

	result := &BatchResult{
		Succeeded: []uuid.UUID{},
		Failed:    map[uuid.UUID]BatchFailure{},
	}
	for _, id := range input.ConflictIDs {
		_, err := s.ResolveOne(ctx, ResolveInput{
			ConflictID: id,
			Resolution: input.Resolution,
			Note:       input.Note,
			ActorID:    input.ActorID,
			ActorRole:  input.ActorRole,
		})
		if err != nil {
			result.Failed[id] = toBatchFailure(err)
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

func toBatchFailure(err error) BatchFailure {
	if typed := pkgerrors.As(err); typed != nil {
		return BatchFailure{Code: string(typed.Code()), Message: typed.Message()}
	}
	return BatchFailure{Code: string(pkgerrors.CodeInternal), Message: err.Error()}
}
