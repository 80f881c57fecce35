package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Export statuses.
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ExportRecord represents one archived report export.
type ExportRecord struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	Filename  string         `json:"filename" gorm:"size:255;not null"`
	Format    string         `json:"format" gorm:"size:10;not null"`
	Status    string         `json:"status" gorm:"size:50;not null;default:'pending'"`
	FileKey   string         `json:"file_key,omitempty" gorm:"size:255"`
	RowCount  int            `json:"row_count"`
	Params    JSON           `json:"params,omitempty" gorm:"type:jsonb"`
	CreatedBy string         `json:"created_by" gorm:"size:255;not null"`
}

// JSON is a custom type for handling JSONB data
type JSON map[string]interface{}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	return json.Unmarshal(bytes, j)
}

// TableName specifies the table name for the ExportRecord model
func (ExportRecord) TableName() string {
	return "export_records"
}

// IsCompleted returns true if the export finished successfully
func (e *ExportRecord) IsCompleted() bool {
	return e.Status == ExportStatusCompleted
}

// IsFailed returns true if the export failed
func (e *ExportRecord) IsFailed() bool {
	return e.Status == ExportStatusFailed
}

// HasFile returns true if a file was archived for this export
func (e *ExportRecord) HasFile() bool {
	return e.FileKey != ""
}
