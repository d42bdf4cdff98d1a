package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
)

// SessionDTO is the outward shape of a counting session.
type SessionDTO struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Mode           enums.CountMode     `json:"mode"`
	SerialTracking bool                `json:"serial_tracking"`
	DamageTracking bool                `json:"damage_tracking"`
	Status         enums.SessionStatus `json:"status"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
}

// CreateSessionInput opens a new counting session.
type CreateSessionInput struct {
	Name           string
	Mode           enums.CountMode
	SerialTracking bool
	DamageTracking bool
	CreatedBy      uuid.UUID
}

// StockItemDTO is the outward shape of a catalog entry.
type StockItemDTO struct {
	ItemCode    string          `json:"item_code"`
	Name        string          `json:"name"`
	Category    *string         `json:"category,omitempty"`
	SubCategory *string         `json:"sub_category,omitempty"`
	MRP         decimal.Decimal `json:"mrp"`
	SystemQty   decimal.Decimal `json:"system_qty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UpsertStockItemInput creates or replaces one catalog entry.
type UpsertStockItemInput struct {
	ItemCode    string
	Name        string
	Category    *string
	SubCategory *string
	MRP         decimal.Decimal
	SystemQty   decimal.Decimal
}

func toSessionDTO(session *models.CountSession) *SessionDTO {
	if session == nil {
		return nil
	}
	return &SessionDTO{
		ID:             session.ID,
		Name:           session.Name,
		Mode:           session.Mode,
		SerialTracking: session.SerialTracking,
		DamageTracking: session.DamageTracking,
		Status:         session.Status,
		CreatedBy:      session.CreatedBy,
		CreatedAt:      session.CreatedAt,
		ClosedAt:       session.ClosedAt,
	}
}

func toStockItemDTO(item *models.StockItem) *StockItemDTO {
	if item == nil {
		return nil
	}
	return &StockItemDTO{
		ItemCode:    item.ItemCode,
		Name:        item.Name,
		Category:    item.Category,
		SubCategory: item.SubCategory,
		MRP:         item.MRP,
		SystemQty:   item.SystemQty,
		UpdatedAt:   item.UpdatedAt,
	}
}
