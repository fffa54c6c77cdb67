package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DateKeyMap maps canonical YYYYMMDD date keys to order ids. It is stored as a
// JSON column on the buyer profile.
type DateKeyMap map[string]string

// Value implements driver.Valuer.
func (m DateKeyMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (m *DateKeyMap) Scan(value any) error {
	if value == nil {
		*m = DateKeyMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported date key map column type %T", value)
	}
	if len(raw) == 0 {
		*m = DateKeyMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Clone returns an independent copy of the map.
func (m DateKeyMap) Clone() DateKeyMap {
	out := make(DateKeyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
