package enums

import "fmt"

// DuplicateDecision is the choice a counter makes when the item they are
// submitting already has a committed line in the session.
type DuplicateDecision string

const (
	DuplicateCancel        DuplicateDecision = "cancel"
	DuplicateAddToExisting DuplicateDecision = "add_to_existing"
	DuplicateCreateNew     DuplicateDecision = "create_new"
)

var validDuplicateDecisions = []DuplicateDecision{
	DuplicateCancel,
	DuplicateAddToExisting,
	DuplicateCreateNew,
}

// String implements fmt.Stringer.
func (d DuplicateDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DuplicateDecision.
func (d DuplicateDecision) IsValid() bool {
	for _, candidate := range validDuplicateDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDuplicateDecision converts raw input into a DuplicateDecision.
func ParseDuplicateDecision(value string) (DuplicateDecision, error) {
	for _, candidate := range validDuplicateDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid duplicate decision %q", value)
}

// VarianceDecision is the choice a counter makes when a strict-mode session
// flags a mismatch between the entered quantity and system stock.
type VarianceDecision string

const (
	VarianceCancel  VarianceDecision = "cancel"
	VarianceConfirm VarianceDecision = "confirm"
)

var validVarianceDecisions = []VarianceDecision{
	VarianceCancel,
	VarianceConfirm,
}

// String implements fmt.Stringer.
func (v VarianceDecision) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VarianceDecision.
func (v VarianceDecision) IsValid() bool {
	for _, candidate := range validVarianceDecisions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVarianceDecision converts raw input into a VarianceDecision.
func ParseVarianceDecision(value string) (VarianceDecision, error) {
	for _, candidate := range validVarianceDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variance decision %q", value)
}
