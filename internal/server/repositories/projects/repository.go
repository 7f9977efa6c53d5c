// Package projects provides persistence for the project side of the
// user/project assignment relation. The assignee foreign key lives here.
package projects

import (
	"context"

	"github.com/NickM101/project-management-app/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// Assign points the project at the given user, silently replacing any
	// previous assignee (last-writer-wins, documented policy).
	Assign(ctx context.Context, projectID, userID string) error
	// UnassignUser clears every project pointing at the user and returns the
	// number of rows touched. Zero rows is a valid no-op.
	UnassignUser(ctx context.Context, userID string) (int64, error)
}
