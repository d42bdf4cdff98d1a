package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldtally/stocktake-backend/pkg/enums"
)

// CountLineCreatedEvent is emitted when a new count line is committed.
type CountLineCreatedEvent struct {
	LineID     uuid.UUID       `json:"line_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	ItemCode   string          `json:"item_code"`
	CountedQty decimal.Decimal `json:"counted_qty"`
	CountedBy  uuid.UUID       `json:"counted_by"`
}

// CountLineQtyAddedEvent is emitted when an additive commit lands on an
// existing line.
type CountLineQtyAddedEvent struct {
	LineID    uuid.UUID       `json:"line_id"`
	SessionID uuid.UUID       `json:"session_id"`
	ItemCode  string          `json:"item_code"`
	AddedQty  decimal.Decimal `json:"added_qty"`
	NewTotal  decimal.Decimal `json:"new_total"`
	CountedBy uuid.UUID       `json:"counted_by"`
}

// VarianceConfirmedEvent records an explicit strict-mode override.
type VarianceConfirmedEvent struct {
	LineID     uuid.UUID       `json:"line_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	ItemCode   string          `json:"item_code"`
	SystemQty  decimal.Decimal `json:"system_qty"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// SyncConflictDetectedEvent is emitted when the server records a divergence.
type SyncConflictDetectedEvent struct {
	ConflictID   uuid.UUID `json:"conflict_id"`
	SessionID    uuid.UUID `json:"session_id"`
	ItemCode     string    `json:"item_code"`
	ConflictType string    `json:"conflict_type"`
}

// SyncConflictResolvedEvent is emitted once a reviewer records a verdict.
type SyncConflictResolvedEvent struct {
	ConflictID uuid.UUID                `json:"conflict_id"`
	SessionID  uuid.UUID                `json:"session_id"`
	ItemCode   string                   `json:"item_code"`
	Resolution enums.ConflictResolution `json:"resolution"`
	ResolvedBy uuid.UUID                `json:"resolved_by"`
	ResolvedAt time.Time                `json:"resolved_at"`
}

// SessionClosedEvent is emitted when a counting session stops accepting
// submissions.
type SessionClosedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	ClosedBy  uuid.UUID `json:"closed_by"`
	ClosedAt  time.Time `json:"closed_at"`
}
