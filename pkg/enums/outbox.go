package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCountLine    OutboxAggregateType = "count_line"
	AggregateCountSession OutboxAggregateType = "count_session"
	AggregateSyncConflict OutboxAggregateType = "sync_conflict"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCountLine,
	AggregateCountSession,
	AggregateSyncConflict,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventCountLineCreated     OutboxEventType = "count_line_created"
	EventCountLineQtyAdded    OutboxEventType = "count_line_qty_added"
	EventVarianceConfirmed    OutboxEventType = "variance_confirmed"
	EventSyncConflictDetected OutboxEventType = "sync_conflict_detected"
	EventSyncConflictResolved OutboxEventType = "sync_conflict_resolved"
	EventSessionClosed        OutboxEventType = "session_closed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCountLineCreated,
	EventCountLineQtyAdded,
	EventVarianceConfirmed,
	EventSyncConflictDetected,
	EventSyncConflictResolved,
	EventSessionClosed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
