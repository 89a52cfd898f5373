package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/pkg/enums"
)

type AdminUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Role         enums.AdminRole `gorm:"column:role;not null;default:'admin'"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
