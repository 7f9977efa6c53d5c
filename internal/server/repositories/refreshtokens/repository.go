// Package refreshtokens provides persistence for server-side refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/NickM101/project-management-app/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	// DeleteAllForUser revokes every session of a user, e.g. after a
	// password change.
	DeleteAllForUser(ctx context.Context, userID string) error
}
