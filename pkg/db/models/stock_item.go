package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem is the system-of-record stock row counts are reconciled against.
type StockItem struct {
	ItemCode    string          `gorm:"column:item_code;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Category    *string         `gorm:"column:category"`
	SubCategory *string         `gorm:"column:sub_category"`
	MRP         decimal.Decimal `gorm:"column:mrp;type:numeric(12,2);not null;default:0"`
	SystemQty   decimal.Decimal `gorm:"column:system_qty;type:numeric(14,3);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
