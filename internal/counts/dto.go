package counts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// CountDraft is a captured count awaiting commit. Serial values arrive as raw
// strings; they are normalized and timestamped only when the commit succeeds.
type CountDraft struct {
	SessionID             uuid.UUID
	ItemCode              string
	Quantity              decimal.Decimal
	Batches               types.BatchList
	DamagedQty            decimal.Decimal
	ItemCondition         string
	ConditionDetails      *string
	Remark                *string
	PhotoRef              *string
	MRPCounted            *decimal.Decimal
	CategoryCorrection    *string
	SubCategoryCorrection *string
	ManufacturingDate     *time.Time
	SerialNumbers         []string
	CountedBy             uuid.UUID
}

// EffectiveQty is the quantity the commit will record: the batch sum in batch
// mode, the entered quantity otherwise.
func (d CountDraft) EffectiveQty(batchMode bool) decimal.Decimal {
	if batchMode {
		return d.Batches.Sum()
	}
	return d.Quantity
}

// CountLineDTO is the outward shape of a committed count line.
type CountLineDTO struct {
	ID                uuid.UUID        `json:"id"`
	SessionID         uuid.UUID        `json:"session_id"`
	ItemCode          string           `json:"item_code"`
	CountedQty        decimal.Decimal  `json:"counted_qty"`
	Batches           types.BatchList  `json:"batches,omitempty"`
	DamagedQty        decimal.Decimal  `json:"damaged_qty"`
	ItemCondition     string           `json:"item_condition"`
	Remark            *string          `json:"remark,omitempty"`
	SerialNumbers     types.SerialList `json:"serial_numbers,omitempty"`
	VarianceConfirmed bool             `json:"variance_confirmed"`
	CountedBy         uuid.UUID        `json:"counted_by"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DuplicateOutcome reports whether an item already carries committed lines in
// a session, and which lines those are.
type DuplicateOutcome struct {
	AlreadyCounted bool           `json:"already_counted"`
	Lines          []CountLineDTO `json:"lines"`
}

func toLineDTO(line *models.CountLine) *CountLineDTO {
	if line == nil {
		return nil
	}
	return &CountLineDTO{
		ID:                line.ID,
		SessionID:         line.SessionID,
		ItemCode:          line.ItemCode,
		CountedQty:        line.CountedQty,
		Batches:           line.Batches,
		DamagedQty:        line.DamagedQty,
		ItemCondition:     line.ItemCondition,
		Remark:            line.Remark,
		SerialNumbers:     line.SerialNumbers,
		VarianceConfirmed: line.VarianceConfirmed,
		CountedBy:         line.CountedBy,
		CreatedAt:         line.CreatedAt,
		UpdatedAt:         line.UpdatedAt,
	}
}

func toLineDTOs(lines []models.CountLine) []CountLineDTO {
	out := make([]CountLineDTO, 0, len(lines))
	for i := range lines {
		out = append(out, *toLineDTO(&lines[i]))
	}
	return out
}
