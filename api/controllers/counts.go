package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/api/middleware"
	"github.com/fieldtally/stocktake-backend/api/responses"
	"github.com/fieldtally/stocktake-backend/api/validators"
	"github.com/fieldtally/stocktake-backend/internal/counts"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
	"github.com/fieldtally/stocktake-backend/pkg/logger"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

type submitCountRequest struct {
	ItemCode              string           `json:"item_code" validate:"required,max=64"`
	Quantity              decimal.Decimal  `json:"quantity"`
	Batches               []batchEntry     `json:"batches,omitempty" validate:"omitempty,dive"`
	DamagedQty            decimal.Decimal  `json:"damaged_qty"`
	ItemCondition         string           `json:"item_condition,omitempty" validate:"omitempty,max=50"`
	ConditionDetails      *string          `json:"condition_details,omitempty" validate:"omitempty,max=500"`
	Remark                *string          `json:"remark,omitempty" validate:"omitempty,max=500"`
	PhotoRef              *string          `json:"photo_ref,omitempty" validate:"omitempty,max=300"`
	MRPCounted            *decimal.Decimal `json:"mrp_counted,omitempty"`
	CategoryCorrection    *string          `json:"category_correction,omitempty" validate:"omitempty,max=100"`
	SubCategoryCorrection *string          `json:"sub_category_correction,omitempty" validate:"omitempty,max=100"`
	ManufacturingDate     *time.Time       `json:"manufacturing_date,omitempty"`
	SerialNumbers         []string         `json:"serial_numbers,omitempty" validate:"omitempty,dive,max=100"`
	ExpectedQty           *decimal.Decimal `json:"expected_qty,omitempty"`
	VarianceDecision      *string          `json:"variance_decision,omitempty"`
	DuplicateDecision     *string          `json:"duplicate_decision,omitempty"`
	TargetLineID          *string          `json:"target_line_id,omitempty" validate:"omitempty,uuid"`
}

type batchEntry struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// SubmitCount commits one count submission. Reconciliation decisions for
// variance and duplicate prompts ride along in the same body; a prompt the
// body does not answer comes back as a DECISION_REQUIRED error carrying the
// context the client needs to re-submit with an answer.
func SubmitCount(svc counts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "counts service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.StaffRole(middleware.RoleFromContext(r.Context()))

		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		var payload submitCountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decider, err := buildDecider(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft := counts.CountDraft{
			SessionID:             sessionID,
			ItemCode:              validators.SanitizeString(payload.ItemCode, 64),
			Quantity:              payload.Quantity,
			Batches:               toBatchList(payload.Batches),
			DamagedQty:            payload.DamagedQty,
			ItemCondition:         validators.SanitizeString(payload.ItemCondition, 50),
			ConditionDetails:      payload.ConditionDetails,
			Remark:                payload.Remark,
			PhotoRef:              payload.PhotoRef,
			MRPCounted:            payload.MRPCounted,
			CategoryCorrection:    payload.CategoryCorrection,
			SubCategoryCorrection: payload.SubCategoryCorrection,
			ManufacturingDate:     payload.ManufacturingDate,
			SerialNumbers:         payload.SerialNumbers,
			CountedBy:             actorID,
		}

		line, err := svc.Submit(r.Context(), counts.SubmitInput{
			Draft:            draft,
			Decider:          decider,
			IdempotencyToken: token,
			ExpectedQty:      payload.ExpectedQty,
			ActorRole:        role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

func CheckItemCounted(svc counts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "counts service unavailable"))
			return
		}

		sessionID, err := validators.ParseUUIDParam(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemCode := validators.SanitizeString(chi.URLParam(r, "itemCode"), 64)
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		outcome, err := svc.CheckItemCounted(r.Context(), sessionID, itemCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

func buildDecider(payload submitCountRequest) (counts.Decider, error) {
	decider := counts.RequestDecider{}

	if payload.VarianceDecision != nil {
		decision, err := enums.ParseVarianceDecision(*payload.VarianceDecision)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variance decision")
		}
		decider.Variance = &decision
	}

	if payload.DuplicateDecision != nil {
		decision, err := enums.ParseDuplicateDecision(*payload.DuplicateDecision)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid duplicate decision")
		}
		decider.Duplicate = &decision
	}

	if payload.TargetLineID != nil {
		lineID, err := uuid.Parse(strings.TrimSpace(*payload.TargetLineID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target line id")
		}
		decider.TargetLineID = &lineID
	}

	return decider, nil
}

func toBatchList(entries []batchEntry) types.BatchList {
	if len(entries) == 0 {
		return nil
	}
	list := make(types.BatchList, 0, len(entries))
	for _, entry := range entries {
		list = append(list, types.Batch{Quantity: entry.Quantity})
	}
	return list
}
