package enums

import "fmt"

// CountMode selects the validation rules applied to a count submission.
type CountMode string

const (
	CountModeStandard CountMode = "standard"
	CountModeStrict   CountMode = "strict"
	CountModeBatch    CountMode = "batch"
)

var validCountModes = []CountMode{
	CountModeStandard,
	CountModeStrict,
	CountModeBatch,
}

// String implements fmt.Stringer.
func (c CountMode) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CountMode.
func (c CountMode) IsValid() bool {
	for _, candidate := range validCountModes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCountMode converts raw input into a CountMode.
func ParseCountMode(value string) (CountMode, error) {
	for _, candidate := range validCountModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid count mode %q", value)
}
