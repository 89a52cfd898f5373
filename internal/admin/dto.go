package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AdminDTO is the public view of a back-office account.
type AdminDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Role        enums.AdminRole `json:"role"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Admin        *AdminDTO `json:"admin"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func FromModel(user *models.AdminUser) *AdminDTO {
	if user == nil {
		return nil
	}
	return &AdminDTO{
		ID:          user.ID,
		Email:       user.Email,
		Role:        user.Role,
		LastLoginAt: user.LastLoginAt,
	}
}
