package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RawJSON stores an arbitrary JSON value (number, array, string or object).
// Empty means SQL NULL.
type RawJSON []byte

func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan accepts the text forms drivers return and also bare numbers, which
// SQLite produces when a column has numeric affinity.
func (j *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(RawJSON(nil), v...)
	case string:
		*j = RawJSON(v)
	case int64:
		*j = RawJSON(strconv.FormatInt(v, 10))
	case float64:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		*j = b
	case bool:
		*j = RawJSON(strconv.FormatBool(v))
	default:
		return fmt.Errorf("unsupported JSON column value of type %T", value)
	}
	return nil
}

func (j RawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *RawJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append(RawJSON(nil), data...)
	return nil
}

func (RawJSON) GormDataType() string {
	return "json"
}

// GormDBDataType keeps TEXT affinity on SQLite so scalars come back as text.
func (RawJSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "sqlite":
		return "TEXT"
	}
	return "JSON"
}
