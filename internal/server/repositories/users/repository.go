// Package users provides persistence for user records.
package users

import (
	"context"

	"github.com/NickM101/project-management-app/internal/server/models"
)

// Filter narrows List results. Zero value means "all users".
type Filter struct {
	ActiveOnly     bool
	Role           models.Role
	WithoutProject bool
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f Filter) ([]*models.User, error)
	Update(ctx context.Context, id string, upd models.AdminUserUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	UpdateProfileImage(ctx context.Context, id, imageID, imageURL string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
