package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONValue holds an arbitrary structured value persisted as JSONB. Conflict
// records carry the local and server values opaquely; they are compared for
// display only and never auto-merged.
type JSONValue json.RawMessage

// MarshalJSON returns the raw bytes unchanged.
func (j JSONValue) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores the raw bytes unchanged.
func (j *JSONValue) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("json value: unmarshal into nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Value passes the raw JSON through to Postgres.
func (j JSONValue) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return []byte(j), nil
}

// Scan copies JSONB bytes out of the driver value.
func (j *JSONValue) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		*j = JSONValue([]byte(v))
	case []byte:
		*j = append((*j)[0:0], v...)
	default:
		return fmt.Errorf("json value: unsupported scan type %T", value)
	}
	return nil
}
