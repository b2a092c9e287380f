package models

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON wraps gorm.io/datatypes.JSON so the column type can be mapped per
// driver (MSSQL has no native json type).
type JSON struct {
	datatypes.JSON
}

// JSONFrom marshals v into a JSON column value. Errors collapse to an empty
// value; profile blobs are best-effort.
func JSONFrom(v any) JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{}
	}
	return JSON{JSON: datatypes.JSON(raw)}
}

func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType selects the column data type for the active dialector.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
