package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SerialEntry is one captured serial number. CapturedAt is stamped when the
// count commits, not when the serial was keyed in.
type SerialEntry struct {
	Label      string    `json:"label"`
	Value      string    `json:"value"`
	CapturedAt time.Time `json:"captured_at"`
}

// SerialList is the per-line serial capture persisted as JSONB.
type SerialList []SerialEntry

// Value marshals the list into JSON for Postgres.
func (s SerialList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the list.
func (s *SerialList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("serial list: unsupported scan type %T", value)
	}

	var result SerialList
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*s = result
	return nil
}
