package admin

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/bayancosmetic/storefront/pkg/config"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/security"
)

const tempPasswordLength = 20

type SeedRequest struct {
	Email    string
	Password string
	Role     enums.AdminRole
}

// SeedResult carries the generated password when none was supplied; it is
// shown once and never stored in clear.
type SeedResult struct {
	Admin        *AdminDTO
	TempPassword string
}

// Seed creates a back-office account. It is used by the migrate command.
func Seed(ctx context.Context, repo Repository, cfg config.PasswordConfig, req SeedRequest) (*SeedResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := req.Role
	if role == "" {
		role = enums.AdminRoleAdmin
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").WithDetails(map[string]any{"role": role})
	}

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check admin email")
	}

	result := &SeedResult{}
	password := req.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password = generated
		result.TempPassword = generated
	}

	hash, err := security.HashPassword(password, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin")
	}
	result.Admin = FromModel(user)
	return result, nil
}
