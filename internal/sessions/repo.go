package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
)

// Repository covers session and stock-item persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSession(ctx context.Context, session *models.CountSession) error
	FindSession(ctx context.Context, id uuid.UUID) (*models.CountSession, error)
	CloseSession(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	UpsertStockItem(ctx context.Context, item *models.StockItem) error
	FindStockItem(ctx context.Context, itemCode string) (*models.StockItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sessions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSession(ctx context.Context, session *models.CountSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindSession(ctx context.Context, id uuid.UUID) (*models.CountSession, error) {
	var session models.CountSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession flips open to closed in one guarded update; zero rows means
// the session is missing or already closed.
func (r *repository) CloseSession(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.CountSession{}).
		Where("id = ? AND status = ?", id, enums.SessionStatusOpen).
		UpdateColumns(map[string]any{
			"status":    enums.SessionStatusClosed,
			"closed_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) UpsertStockItem(ctx context.Context, item *models.StockItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "sub_category", "mrp", "system_qty", "updated_at",
			}),
		}).
		Create(item).Error
}

func (r *repository) FindStockItem(ctx context.Context, itemCode string) (*models.StockItem, error) {
	var item models.StockItem
	err := r.db.WithContext(ctx).Where("item_code = ?", itemCode).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}
