package conflicts

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldtally/stocktake-backend/pkg/db/models"
	"github.com/fieldtally/stocktake-backend/pkg/enums"
	"github.com/fieldtally/stocktake-backend/pkg/types"
)

// StatusFilter narrows a conflict listing.
type StatusFilter string

const (
	FilterPending  StatusFilter = "pending"
	FilterResolved StatusFilter = "resolved"
	FilterAll      StatusFilter = "all"
)

// IsValid reports whether the filter is one of the supported values.
func (f StatusFilter) IsValid() bool {
	switch f {
	case FilterPending, FilterResolved, FilterAll:
		return true
	}
	return false
}

// ConflictDTO is the outward shape of a sync conflict.
type ConflictDTO struct {
	ID             uuid.UUID                 `json:"id"`
	SessionID      uuid.UUID                 `json:"session_id"`
	ItemCode       string                    `json:"item_code"`
	ConflictType   string                    `json:"conflict_type"`
	LocalValue     types.JSONValue           `json:"local_value,omitempty"`
	ServerValue    types.JSONValue           `json:"server_value,omitempty"`
	Status         enums.ConflictStatus      `json:"status"`
	Resolution     *enums.ConflictResolution `json:"resolution,omitempty"`
	ResolutionNote *string                   `json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID                `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time                `json:"resolved_at,omitempty"`
	DetectedAt     time.Time                 `json:"detected_at"`
}

// ConflictList is one page of conflicts, most recently detected first.
type ConflictList struct {
	Conflicts  []ConflictDTO `json:"conflicts"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ConflictStats is the aggregate view for review dashboards.
type ConflictStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Resolved int64 `json:"resolved"`
}

// BatchFailure explains why one id in a batch resolution did not apply.
type BatchFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult reports a batch resolution per id. Succeeded and Failed
// partition the input; one failure never affects the others.
type BatchResult struct {
	Succeeded []uuid.UUID                `json:"succeeded"`
	Failed    map[uuid.UUID]BatchFailure `json:"failed"`
}

func toConflictDTO(conflict *models.SyncConflict) *ConflictDTO {
	if conflict == nil {
		return nil
	}
	return &ConflictDTO{
		ID:             conflict.ID,
		SessionID:      conflict.SessionID,
		ItemCode:       conflict.ItemCode,
		ConflictType:   conflict.ConflictType,
		LocalValue:     conflict.LocalValue,
		ServerValue:    conflict.ServerValue,
		Status:         conflict.Status,
		Resolution:     conflict.Resolution,
		ResolutionNote: conflict.ResolutionNote,
		ResolvedBy:     conflict.ResolvedBy,
		ResolvedAt:     conflict.ResolvedAt,
		DetectedAt:     conflict.CreatedAt,
	}
}

func toConflictDTOs(conflicts []models.SyncConflict) []ConflictDTO {
	out := make([]ConflictDTO, 0, len(conflicts))
	for i := range conflicts {
		out = append(out, *toConflictDTO(&conflicts[i]))
	}
	return out
}
