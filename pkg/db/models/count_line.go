package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// CountLine is one committed count for an item within a session. The same
// (session, item) pair may carry several lines when a counter explicitly
// chooses to record a second independent count.
type CountLine struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID             uuid.UUID        `gorm:"column:session_id;type:uuid;not null;index:idx_count_lines_session_item,priority:1"`
	ItemCode              string           `gorm:"column:item_code;not null;index:idx_count_lines_session_item,priority:2"`
	CountedQty            decimal.Decimal  `gorm:"column:counted_qty;type:numeric(14,3);not null"`
	Batches               types.BatchList  `gorm:"column:batches;type:jsonb"`
	DamagedQty            decimal.Decimal  `gorm:"column:damaged_qty;type:numeric(14,3);not null;default:0"`
	ItemCondition         string           `gorm:"column:item_condition;not null;default:'Good'"`
	ConditionDetails      *string          `gorm:"column:condition_details"`
	Remark                *string          `gorm:"column:remark"`
	PhotoRef              *string          `gorm:"column:photo_ref"`
	MRPCounted            *decimal.Decimal `gorm:"column:mrp_counted;type:numeric(12,2)"`
	CategoryCorrection    *string          `gorm:"column:category_correction"`
	SubCategoryCorrection *string          `gorm:"column:sub_category_correction"`
	ManufacturingDate     *time.Time       `gorm:"column:manufacturing_date"`
	SerialNumbers         types.SerialList `gorm:"column:serial_numbers;type:jsonb"`
	VarianceConfirmed     bool             `gorm:"column:variance_confirmed;not null;default:false"`
	CountedBy             uuid.UUID        `gorm:"column:counted_by;type:uuid;not null"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
