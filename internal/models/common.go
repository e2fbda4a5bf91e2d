package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON maps a jsonb column to a loose key/value bag. Leads use it for
// per-tenant custom fields that have no fixed schema.
type JSON map[string]interface{}

// Value serializes the map for storage.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan deserializes a jsonb column value.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	var result JSON
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}
