package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is an opaque key-value payload stored as jsonb. The core does not
// interpret its contents; callers own the schema.
type Metadata map[string]any

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("Metadata: unsupported Scan type %T", src)
	}
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// GormDataType tells GORM how to map the column without a per-field tag.
func (Metadata) GormDataType() string {
	return "jsonb"
}
