package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Batch is one physically counted batch of an item.
type Batch struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// BatchList is the per-line batch breakdown persisted as JSONB.
type BatchList []Batch

// Sum returns the total quantity across all batches.
func (b BatchList) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, batch := range b {
		total = total.Add(batch.Quantity)
	}
	return total
}

// Value marshals the list into JSON for Postgres.
func (b BatchList) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the list.
func (b *BatchList) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("batch list: unsupported scan type %T", value)
	}

	var result BatchList
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*b = result
	return nil
}
