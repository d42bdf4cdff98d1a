package enums

import "fmt"

// ConflictStatus tracks the one-shot lifecycle of a sync conflict.
// A conflict moves from pending to resolved exactly once and is never deleted.
type ConflictStatus string

const (
	ConflictStatusPending  ConflictStatus = "pending"
	ConflictStatusResolved ConflictStatus = "resolved"
)

var validConflictStatuses = []ConflictStatus{
	ConflictStatusPending,
	ConflictStatusResolved,
}

// String implements fmt.Stringer.
func (c ConflictStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConflictStatus.
func (c ConflictStatus) IsValid() bool {
	for _, candidate := range validConflictStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConflictStatus converts raw input into a ConflictStatus.
func ParseConflictStatus(value string) (ConflictStatus, error) {
	for _, candidate := range validConflictStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conflict status %q", value)
}

// ConflictResolution is the verdict a reviewer records against a conflict.
type ConflictResolution string

const (
	ResolutionAcceptLocal  ConflictResolution = "accept_local"
	ResolutionAcceptServer ConflictResolution = "accept_server"
)

var validConflictResolutions = []ConflictResolution{
	ResolutionAcceptLocal,
	ResolutionAcceptServer,
}

// String implements fmt.Stringer.
func (c ConflictResolution) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ConflictResolution.
func (c ConflictResolution) IsValid() bool {
	for _, candidate := range validConflictResolutions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConflictResolution converts raw input into a ConflictResolution.
func ParseConflictResolution(value string) (ConflictResolution, error) {
	for _, candidate := range validConflictResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid conflict resolution %q", value)
}
