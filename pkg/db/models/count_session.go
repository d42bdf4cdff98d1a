package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtally/stocktake-backend/pkg/enums"
)

// CountSession is one physical counting exercise. Its mode fixes the
// validation rules applied to every submission made against it.
type CountSession struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Mode           enums.CountMode     `gorm:"column:mode;type:count_mode_enum;not null;default:'standard'"`
	SerialTracking bool                `gorm:"column:serial_tracking;not null;default:false"`
	DamageTracking bool                `gorm:"column:damage_tracking;not null;default:false"`
	Status         enums.SessionStatus `gorm:"column:status;type:session_status_enum;not null;default:'open'"`
	CreatedBy      uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	ClosedAt       *time.Time          `gorm:"column:closed_at"`
}
