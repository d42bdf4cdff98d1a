package counts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// Repository covers the reads and writes the submission workflow needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSession(ctx context.Context, id uuid.UUID) (*models.CountSession, error)
	FindStockItem(ctx context.Context, itemCode string) (*models.StockItem, error)
	FindLinesBySessionItem(ctx context.Context, sessionID uuid.UUID, itemCode string) ([]models.CountLine, error)
	FindLine(ctx context.Context, id uuid.UUID) (*models.CountLine, error)
	CreateLine(ctx context.Context, line *models.CountLine) error
	AddToLine(ctx context.Context, lineID uuid.UUID, add LineAddition) (*models.CountLine, error)
	CreateConflict(ctx context.Context, conflict *models.SyncConflict) error
}

// LineAddition is the delta an additive commit applies to an existing line.
type LineAddition struct {
	Qty        decimal.Decimal
	DamagedQty decimal.Decimal
	Batches    types.BatchList
	Serials    types.SerialList
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a counts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSession(ctx context.Context, id uuid.UUID) (*models.CountSession, error) {
	var session models.CountSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindStockItem(ctx context.Context, itemCode string) (*models.StockItem, error) {
	var item models.StockItem
	err := r.db.WithContext(ctx).Where("item_code = ?", itemCode).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindLinesBySessionItem(ctx context.Context, sessionID uuid.UUID, itemCode string) ([]models.CountLine, error) {
	var lines []models.CountLine
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND item_code = ?", sessionID, itemCode).
		Order("created_at DESC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindLine(ctx context.Context, id uuid.UUID) (*models.CountLine, error) {
	var line models.CountLine
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.CountLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// AddToLine applies the delta additively in SQL so concurrent commits never
// lose an increment, then merges the list columns and returns the new row.
func (r *repository) AddToLine(ctx context.Context, lineID uuid.UUID, add LineAddition) (*models.CountLine, error) {
	res := r.db.WithContext(ctx).Model(&models.CountLine{}).
		Where("id = ?", lineID).
		UpdateColumns(map[string]any{
			"counted_qty": gorm.Expr("counted_qty + ?", add.Qty),
			"damaged_qty": gorm.Expr("damaged_qty + ?", add.DamagedQty),
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	line, err := r.FindLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	if len(add.Batches) > 0 || len(add.Serials) > 0 {
		line.Batches = append(line.Batches, add.Batches...)
		line.SerialNumbers = append(line.SerialNumbers, add.Serials...)
		err := r.db.WithContext(ctx).Model(&models.CountLine{}).
			Where("id = ?", lineID).
			UpdateColumns(map[string]any{
				"batches":        line.Batches,
				"serial_numbers": line.SerialNumbers,
			}).Error
		if err != nil {
			return nil, err
		}
	}

	return line, nil
}

func (r *repository) CreateConflict(ctx context.Context, conflict *models.SyncConflict) error {
	return r.db.WithContext(ctx).Create(conflict).Error
}
