package counts

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	pkgerrors "github.com/fieldtally/stocktake-backend/pkg/errors"
)

// Validation reason details surfaced to the client.
const (
	ReasonEmptyBatchList      = "empty_batch_list"
	ReasonInvalidQuantity     = "invalid_quantity"
	ReasonSerialCountMismatch = "serial_count_mismatch"
	ReasonDamageQtyOutOfRange = "damage_qty_out_of_range"
	ReasonConditionDetails    = "condition_details_required"
)

// conditionOther is the catch-all item condition that needs an explanation.
const conditionOther = "Other"

type validationDetails struct {
	Reason   string `json:"reason"`
	ItemCode string `json:"item_code"`
}

func validationError(reason, itemCode, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(validationDetails{Reason: reason, ItemCode: itemCode})
}

// ValidateDraft checks a draft against the session's counting rules. It is a
// pure predicate: no I/O, evaluated before any write.
//
// Batch sessions require at least one batch entry and skip the quantity and
// serial checks. Otherwise the entered quantity must be positive, and when the
// session tracks serials the number of non-blank serial values must equal the
// quantity exactly. Damage tracking bounds damagedQty to [0, quantity] against
// the effective quantity in either mode.
func ValidateDraft(draft CountDraft, session *models.CountSession) error {
	batchMode := session.Mode == enums.CountModeBatch

	if batchMode {
		if len(draft.Batches) == 0 {
			return validationError(ReasonEmptyBatchList, draft.ItemCode, "batch sessions require at least one batch entry")
		}
	} else {
		if draft.Quantity.LessThanOrEqual(decimal.Zero) {
			return validationError(ReasonInvalidQuantity, draft.ItemCode, "counted quantity must be greater than zero")
		}
		if session.SerialTracking {
			serials := nonBlankSerials(draft.SerialNumbers)
			if !decimal.NewFromInt(int64(len(serials))).Equal(draft.Quantity) {
				return validationError(ReasonSerialCountMismatch, draft.ItemCode, "serial count must equal the counted quantity")
			}
		}
	}

	if session.DamageTracking {
		qty := draft.EffectiveQty(batchMode)
		if draft.DamagedQty.IsNegative() || draft.DamagedQty.GreaterThan(qty) {
			return validationError(ReasonDamageQtyOutOfRange, draft.ItemCode, "damaged quantity must be between zero and the counted quantity")
		}
	}

	if strings.EqualFold(draft.ItemCondition, conditionOther) {
		if draft.ConditionDetails == nil || strings.TrimSpace(*draft.ConditionDetails) == "" {
			return validationError(ReasonConditionDetails, draft.ItemCode, `condition details are required when the condition is "Other"`)
		}
	}

	return nil
}

func nonBlankSerials(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
