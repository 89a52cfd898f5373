package models

import (
	"time"

	"github.com/google/uuid"
)

type ShippingCost struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CityName  string    `gorm:"column:city_name;not null"`
	CostCents int64     `gorm:"column:cost_cents;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
