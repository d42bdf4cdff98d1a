package counts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/config"
	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/metrics"
	"github.com/fieldtally/stocktake-backend/pkg/outbox"
	"github.com/fieldtally/stocktake-backend/pkg/outbox/payloads"
	"github.com/fieldtally/stocktake-backend/pkg/redis"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// ConflictTypeLineTotal marks a divergence between the caller's offline view
// of a line total and the server total at commit time.
const ConflictTypeLineTotal = "count_line_total"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs count submissions end to end: validation, the strict-mode
// variance gate, duplicate reconciliation, and the guarded commit.
type Service interface {
	CheckItemCounted(ctx context.Context, sessionID uuid.UUID, itemCode string) (*DuplicateOutcome, error)
	Submit(ctx context.Context, input SubmitInput) (*CountLineDTO, error)
}

// SubmitInput carries one submission. ExpectedQty, when set on an additive
// commit, is the caller's offline view of the target line total; a mismatch
// records a sync conflict without blocking the commit.
type SubmitInput struct {
	Draft            CountDraft
	Decider          Decider
	IdempotencyToken string
	ExpectedQty      *decimal.Decimal
	ActorRole        enums.StaffRole
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	tokens  redis.CommitTokenStore
	metrics *metrics.ReconciliationMetrics
	logg    *logger.Logger
	cfg     config.CountingConfig
}

// NewService builds the count submission service.
func NewService(
	repo Repository,
	tx txRunner,
	ob outboxPublisher,
	tokens redis.CommitTokenStore,
	m *metrics.ReconciliationMetrics,
	logg *logger.Logger,
	cfg config.CountingConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("counts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("commit token store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  ob,
		tokens:  tokens,
		metrics: m,
		logg:    logg,
		cfg:     cfg,
	}, nil
}

// CheckItemCounted reports the committed lines for (session, item). A failed
// or timed-out query degrades to "not counted": the caller proceeds and any
// real divergence is caught later as a sync conflict.
func (s *service) CheckItemCounted(ctx context.Context, sessionID uuid.UUID, itemCode string) (*DuplicateOutcome, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if strings.TrimSpace(itemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}

	queryCtx := ctx
	if s.cfg.DuplicateCheckTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.cfg.DuplicateCheckTimeout)
		defer cancel()
	}

	lines, err := s.repo.FindLinesBySessionItem(queryCtx, sessionID, itemCode)
	if err != nil {
		s.metrics.IncDuplicateCheck("degraded")
		s.logg.Warn(s.logg.WithField(ctx, "item_code", itemCode), "duplicate check degraded to proceed-as-new")
		return &DuplicateOutcome{AlreadyCounted: false, Lines: []CountLineDTO{}}, nil
	}

	if len(lines) == 0 {
		s.metrics.IncDuplicateCheck("clear")
		return &DuplicateOutcome{AlreadyCounted: false, Lines: []CountLineDTO{}}, nil
	}
	s.metrics.IncDuplicateCheck("duplicate")
	return &DuplicateOutcome{AlreadyCounted: true, Lines: toLineDTOs(lines)}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*CountLineDTO, error) {
	draft := input.Draft
	if draft.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if strings.TrimSpace(draft.ItemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}
	if draft.CountedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Decider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decider required")
	}
	if strings.TrimSpace(input.IdempotencyToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token required")
	}

	session, err := s.repo.FindSession(ctx, draft.SessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session.Status != enums.SessionStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}

	if err := ValidateDraft(draft, session); err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}

	batchMode := session.Mode == enums.CountModeBatch
	effectiveQty := draft.EffectiveQty(batchMode)

	varianceConfirmed := false
	var variancePrompt *VariancePrompt
	if session.Mode == enums.CountModeStrict {
		prompt, err := s.varianceGate(ctx, draft.ItemCode, effectiveQty)
		if err != nil {
			return nil, err
		}
		if prompt != nil {
			decision, err := input.Decider.ConfirmVariance(ctx, *prompt)
			if err != nil {
				return nil, err
			}
			if decision != enums.VarianceConfirm {
				s.metrics.IncSubmission("canceled")
				return nil, pkgerrors.New(pkgerrors.CodeCanceled, "submission canceled").
					WithDetails(decisionPromptDetails{Prompt: "variance", Variance: prompt})
			}
			varianceConfirmed = true
			variancePrompt = prompt
		}
	}

	outcome, err := s.CheckItemCounted(ctx, draft.SessionID, draft.ItemCode)
	if err != nil {
		return nil, err
	}

	resolution := DuplicateResolution{Decision: enums.DuplicateCreateNew}
	if outcome.AlreadyCounted {
		resolution, err = input.Decider.ResolveDuplicate(ctx, DuplicatePrompt{
			SessionID: draft.SessionID,
			ItemCode:  draft.ItemCode,
			Lines:     outcome.Lines,
		})
		if err != nil {
			return nil, err
		}
		if resolution.Decision == enums.DuplicateCancel {
			s.metrics.IncSubmission("canceled")
			return nil, pkgerrors.New(pkgerrors.CodeCanceled, "submission canceled")
		}
		if resolution.Decision == enums.DuplicateAddToExisting && !lineBelongs(outcome.Lines, resolution.LineID) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target line does not belong to this session and item")
		}
	}

	actor := &outbox.ActorRef{UserID: draft.CountedBy, Role: string(input.ActorRole)}
	now := time.Now().UTC()
	serials := normalizeSerials(draft.SerialNumbers, now)

	if resolution.Decision == enums.DuplicateAddToExisting {
		return s.commitAdd(ctx, session, input, resolution.LineID, effectiveQty, serials, actor, varianceConfirmed, variancePrompt)
	}
	return s.commitCreate(ctx, session, input, effectiveQty, serials, actor, varianceConfirmed, variancePrompt)
}

// varianceGate returns a prompt when strict mode finds the entered quantity
// diverging from system stock, nil when the submission may proceed quietly.
func (s *service) varianceGate(ctx context.Context, itemCode string, effectiveQty decimal.Decimal) (*VariancePrompt, error) {
	item, err := s.repo.FindStockItem(ctx, itemCode)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// No system quantity to compare against; nothing to gate.
			s.logg.Warn(s.logg.WithField(ctx, "item_code", itemCode), "strict gate skipped, item missing from catalog")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	if item.SystemQty.Equal(effectiveQty) {
		return nil, nil
	}
	return &VariancePrompt{
		ItemCode:   itemCode,
		SystemQty:  item.SystemQty,
		CountedQty: effectiveQty,
	}, nil
}

func (s *service) commitCreate(
	ctx context.Context,
	session *models.CountSession,
	input SubmitInput,
	effectiveQty decimal.Decimal,
	serials types.SerialList,
	actor *outbox.ActorRef,
	varianceConfirmed bool,
	variancePrompt *VariancePrompt,
) (*CountLineDTO, error) {
	draft := input.Draft
	lineID := uuid.New()

	replayed, err := s.reserveToken(ctx, input.IdempotencyToken, lineID)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	line := &models.CountLine{
		ID:                    lineID,
		SessionID:             draft.SessionID,
		ItemCode:              draft.ItemCode,
		CountedQty:            effectiveQty,
		Batches:               draft.Batches,
		DamagedQty:            draft.DamagedQty,
		ItemCondition:         itemConditionOrDefault(draft.ItemCondition),
		ConditionDetails:      draft.ConditionDetails,
		Remark:                draft.Remark,
		PhotoRef:              draft.PhotoRef,
		MRPCounted:            draft.MRPCounted,
		CategoryCorrection:    draft.CategoryCorrection,
		SubCategoryCorrection: draft.SubCategoryCorrection,
		ManufacturingDate:     draft.ManufacturingDate,
		SerialNumbers:         serials,
		VarianceConfirmed:     varianceConfirmed,
		CountedBy:             draft.CountedBy,
	}

	start := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create count line")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCountLineCreated,
			AggregateType: enums.AggregateCountLine,
			AggregateID:   line.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.CountLineCreatedEvent{
				LineID:     line.ID,
				SessionID:  line.SessionID,
				ItemCode:   line.ItemCode,
				CountedQty: line.CountedQty,
				CountedBy:  line.CountedBy,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		return s.emitVariance(ctx, tx, line, actor, varianceConfirmed, variancePrompt)
	})
	if err != nil {
		s.releaseToken(ctx, input.IdempotencyToken)
		s.metrics.IncSubmission("failed")
		return nil, err
	}

	s.metrics.IncSubmission("created")
	s.metrics.ObserveCommitDuration("create", time.Since(start))
	return toLineDTO(line), nil
}

func (s *service) commitAdd(
	ctx context.Context,
	session *models.CountSession,
	input SubmitInput,
	targetLineID uuid.UUID,
	effectiveQty decimal.Decimal,
	serials types.SerialList,
	actor *outbox.ActorRef,
	varianceConfirmed bool,
	variancePrompt *VariancePrompt,
) (*CountLineDTO, error) {
	draft := input.Draft

	replayed, err := s.reserveToken(ctx, input.IdempotencyToken, targetLineID)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	var line *models.CountLine
	start := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.AddToLine(ctx, targetLineID, LineAddition{
			Qty:        effectiveQty,
			DamagedQty: draft.DamagedQty,
			Batches:    draft.Batches,
			Serials:    serials,
		})
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "count line not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add to count line")
		}
		line = updated

		if input.ExpectedQty != nil && !input.ExpectedQty.Equal(line.CountedQty) {
			if err := s.recordDivergence(ctx, repo, tx, line, *input.ExpectedQty, actor); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCountLineQtyAdded,
			AggregateType: enums.AggregateCountLine,
			AggregateID:   line.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.CountLineQtyAddedEvent{
				LineID:    line.ID,
				SessionID: line.SessionID,
				ItemCode:  line.ItemCode,
				AddedQty:  effectiveQty,
				NewTotal:  line.CountedQty,
				CountedBy: draft.CountedBy,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		return s.emitVariance(ctx, tx, line, actor, varianceConfirmed, variancePrompt)
	})
	if err != nil {
		s.releaseToken(ctx, input.IdempotencyToken)
		s.metrics.IncSubmission("failed")
		return nil, err
	}

	s.metrics.IncSubmission("added")
	s.metrics.ObserveCommitDuration("add", time.Since(start))
	return toLineDTO(line), nil
}

// recordDivergence files a pending sync conflict alongside the additive
// commit; the commit itself is never blocked by the mismatch.
func (s *service) recordDivergence(
	ctx context.Context,
	repo Repository,
	tx *gorm.DB,
	line *models.CountLine,
	expectedQty decimal.Decimal,
	actor *outbox.ActorRef,
) error {
	localValue, err := encodeJSONValue(expectedQty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local value")
	}
	serverValue, err := encodeJSONValue(line.CountedQty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode server value")
	}

	conflict := &models.SyncConflict{
		ID:           uuid.New(),
		SessionID:    line.SessionID,
		ItemCode:     line.ItemCode,
		ConflictType: ConflictTypeLineTotal,
		LocalValue:   localValue,
		ServerValue:  serverValue,
		Status:       enums.ConflictStatusPending,
	}
	if err := repo.CreateConflict(ctx, conflict); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sync conflict")
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSyncConflictDetected,
		AggregateType: enums.AggregateSyncConflict,
		AggregateID:   conflict.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.SyncConflictDetectedEvent{
			ConflictID:   conflict.ID,
			SessionID:    conflict.SessionID,
			ItemCode:     conflict.ItemCode,
			ConflictType: conflict.ConflictType,
		},
	})
}

func (s *service) emitVariance(
	ctx context.Context,
	tx *gorm.DB,
	line *models.CountLine,
	actor *outbox.ActorRef,
	confirmed bool,
	prompt *VariancePrompt,
) error {
	if !confirmed || prompt == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVarianceConfirmed,
		AggregateType: enums.AggregateCountLine,
		AggregateID:   line.ID,
		Version:       1,
		Actor:         actor,
		Data: payloads.VarianceConfirmedEvent{
			LineID:     line.ID,
			SessionID:  line.SessionID,
			ItemCode:   line.ItemCode,
			SystemQty:  prompt.SystemQty,
			CountedQty: prompt.CountedQty,
		},
	})
}

// reserveToken claims the idempotency token for lineID. A token already held
// replays the previously committed line instead of committing again.
func (s *service) reserveToken(ctx context.Context, token string, lineID uuid.UUID) (*CountLineDTO, error) {
	key := s.tokens.CommitTokenKey(token)
	ok, err := s.tokens.SetNX(ctx, key, lineID.String(), s.cfg.CommitTokenTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve commit token")
	}
	if ok {
		return nil, nil
	}

	stored, err := s.tokens.Get(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read commit token")
	}
	priorID, err := uuid.Parse(stored)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency token reused with different parameters")
	}
	line, err := s.repo.FindLine(ctx, priorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// Token reserved by a commit that never landed.
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency token held by an unfinished commit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load committed line")
	}
	s.metrics.IncSubmission("replayed")
	s.logg.Info(s.logg.WithField(ctx, "line_id", priorID.String()), "commit token replayed")
	return toLineDTO(line), nil
}

func (s *service) releaseToken(ctx context.Context, token string) {
	key := s.tokens.CommitTokenKey(token)
	if err := s.tokens.Del(ctx, key); err != nil {
		s.logg.Warn(ctx, "release commit token failed")
	}
}

func lineBelongs(lines []CountLineDTO, lineID uuid.UUID) bool {
	for _, line := range lines {
		if line.ID == lineID {
			return true
		}
	}
	return false
}

func normalizeSerials(values []string, capturedAt time.Time) types.SerialList {
	out := make(types.SerialList, 0, len(values))
	for i, v := range values {
		trimmed := strings.ToUpper(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		out = append(out, types.SerialEntry{
			Label:      fmt.Sprintf("Serial %d", i+1),
			Value:      trimmed,
			CapturedAt: capturedAt,
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func itemConditionOrDefault(condition string) string {
	if strings.TrimSpace(condition) == "" {
		return "Good"
	}
	return condition
}

func encodeJSONValue(v any) (types.JSONValue, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONValue(buf), nil
}
