package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtally/stocktake-backend/pkg/enums"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// SyncConflict records a divergence between an offline-originated value and
// the value the server holds. Rows are append-only: a conflict is resolved
// exactly once and never deleted.
type SyncConflict struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      uuid.UUID                 `gorm:"column:session_id;type:uuid;not null;index"`
	ItemCode       string                    `gorm:"column:item_code;not null"`
	ConflictType   string                    `gorm:"column:conflict_type;not null"`
	LocalValue     types.JSONValue           `gorm:"column:local_value;type:jsonb"`
	ServerValue    types.JSONValue           `gorm:"column:server_value;type:jsonb"`
	Status         enums.ConflictStatus      `gorm:"column:status;type:conflict_status_enum;not null;default:'pending';index"`
	Resolution     *enums.ConflictResolution `gorm:"column:resolution;type:conflict_resolution_enum"`
	ResolutionNote *string                   `gorm:"column:resolution_note"`
	ResolvedBy     *uuid.UUID                `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt     *time.Time                `gorm:"column:resolved_at"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
