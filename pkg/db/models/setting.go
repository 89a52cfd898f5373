package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Setting is a storefront-wide key/value pair stored as JSON.
type Setting struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key       string          `gorm:"column:key;not null"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
