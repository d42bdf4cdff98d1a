package conflicts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	"github.com/fieldtally/stocktake-backend/pkg/pagination"
)

// Repository covers conflict reads and the guarded resolution write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, filter StatusFilter, params pagination.Params) ([]models.SyncConflict, error)
	Stats(ctx context.Context) (*ConflictStats, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SyncConflict, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution enums.ConflictResolution, note *string, actorID uuid.UUID, at time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a conflicts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// List returns one page of conflicts ordered by detection time, most recent
// first. The cursor pins (created_at, id) of the last row seen.
func (r *repository) List(ctx context.Context, filter StatusFilter, params pagination.Params) ([]models.SyncConflict, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncConflict{})

	switch filter {
	case FilterPending:
		query = query.Where("status = ?", enums.ConflictStatusPending)
	case FilterResolved:
		query = query.Where("status = ?", enums.ConflictStatusResolved)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var conflicts []models.SyncConflict
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&conflicts).Error
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *repository) Stats(ctx context.Context) (*ConflictStats, error) {
	type statusCount struct {
		Status enums.ConflictStatus
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&models.SyncConflict{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &ConflictStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case enums.ConflictStatusPending:
			stats.Pending = row.Count
		case enums.ConflictStatusResolved:
			stats.Resolved = row.Count
		}
	}
	return stats, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SyncConflict, error) {
	var conflict models.SyncConflict
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conflict).Error
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

// Resolve flips pending to resolved in one guarded update. Zero rows affected
// means the row is missing or was already resolved; the caller disambiguates.
func (r *repository) Resolve(ctx context.Context, id uuid.UUID, resolution enums.ConflictResolution, note *string, actorID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.SyncConflict{}).
		Where("id = ? AND status = ?", id, enums.ConflictStatusPending).
		UpdateColumns(map[string]any{
			"status":          enums.ConflictStatusResolved,
			"resolution":      resolution,
			"resolution_note": note,
			"resolved_by":     actorID,
			"resolved_at":     at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
