package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/dbx"
	"github.com/NickM101/project-management-app/internal/logging"
	"github.com/NickM101/project-management-app/internal/server/auth"
	"github.com/NickM101/project-management-app/internal/server/config"
	"github.com/NickM101/project-management-app/internal/server/models"
	"github.com/NickM101/project-management-app/internal/server/repositories/repomanager"
	"github.com/NickM101/project-management-app/internal/server/repositories/users"
	"github.com/NickM101/project-management-app/internal/server/storage"
)

// profileImageFolder is the object-store prefix for profile assets.
const profileImageFolder = "profiles"

// nowUnixMilli is a seam so tests can pin upload identifiers.
var nowUnixMilli = func() int64 { return time.Now().UnixMilli() }

// NewUserParams carries the createUser input. Role and IsActive are optional;
// they default to RoleUser and true.
type NewUserParams struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
	IsActive *bool
}

// UserService orchestrates user lifecycle operations: creation, reads,
// partial updates, activation, project assignment, deletion, and the
// two-phase profile-image workflows against the external image store.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      storage.ImageStore
	logger      logging.Logger
	hashCost    int
}

// NewUserService constructs a UserService using repositories, the external
// image store, and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore, l logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      l.With("module", "user_service"),
		hashCost:    cfg.PasswordHashCost,
	}
}

// Create registers a new user. A duplicate email yields common.ErrConflict;
// the existing record is never touched.
func (s *UserService) Create(ctx context.Context, p NewUserParams) (*models.UserView, error) {
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, p.Email); err == nil {
		return nil, fmt.Errorf("user with email %s: %w", p.Email, common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password, s.hashCost)
	if err != nil {
		return nil, common.ErrInternal
	}

	role := p.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, common.ErrBadRequest)
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		Name:         p.Name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}

	// The unique constraint still backs the pre-check: a concurrent insert
	// surfaces as ErrConflict from the repository.
	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("user with email %s: %w", p.Email, common.ErrConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created.View(), nil
}

// GetByID returns the sanitized projection of one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// List returns sanitized projections matching the filter.
func (s *UserService) List(ctx context.Context, f users.Filter) ([]*models.UserView, error) {
	list, err := s.repomanager.Users(s.db).List(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]*models.UserView, 0, len(list))
	for _, u := range list {
		views = append(views, u.View())
	}
	return views, nil
}

// UpdateProfile applies a self-service partial update. The update shape has
// no role or activity fields, so escalation is impossible by construction.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd models.UserUpdate) (*models.UserView, error) {
	return s.update(ctx, id, models.AdminUserUpdate{UserUpdate: upd})
}

// AdminUpdate applies an administrative partial update, which may also set
// role and activity.
func (s *UserService) AdminUpdate(ctx context.Context, id string, upd models.AdminUserUpdate) (*models.UserView, error) {
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", *upd.Role, common.ErrBadRequest)
	}
	return s.update(ctx, id, upd)
}

func (s *UserService) update(ctx context.Context, id string, upd models.AdminUserUpdate) (*models.UserView, error) {
	user, err := s.repomanager.Users(s.db).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// Deactivate flips is_active off. The record, credentials, and history stay;
// the operation is reversible through AdminUpdate.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.repomanager.Users(s.db).Update(ctx, id, models.AdminUserUpdate{IsActive: &inactive})
	return err
}

// Delete removes the user permanently. Unlike Deactivate this is not
// reversible.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Users(s.db).Delete(ctx, id)
}

// AssignProject points the project at the user. Reassignment is
// last-writer-wins with no conflict signal to the losing caller; the user's
// previous assignment is cleared in the same transaction so at most one
// project references a user at any time. Re-assigning the same pair is
// idempotent.
func (s *UserService) AssignProject(ctx context.Context, userID, projectID string) (*models.UserView, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)
		if _, err := repo.UnassignUser(ctx, userID); err != nil {
			return err
		}
		return repo.Assign(ctx, projectID, userID)
	}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, userID)
}

// UnassignProject clears any project pointing at the user. A user with no
// assignment is a no-op, never an error.
func (s *UserService) UnassignProject(ctx context.Context, userID string) (*models.UserView, error) {
	if _, err := s.repomanager.Projects(s.db).UnassignUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID)
}

// UpdateProfileImage runs the two-phase image workflow: when the user already
// has an image id the remote object is replaced in place under that id,
// otherwise a fresh object is uploaded under an identifier derived from the
// user id and the current time. The local record is updated only after the
// remote store confirms. There is no shared transaction with the remote
// store; a local write failure after a remote success leaves a divergence
// that is accepted and logged, not compensated.
func (s *UserService) UpdateProfileImage(ctx context.Context, userID string, file io.Reader) (*models.UserView, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *storage.UploadResult
	if user.ProfileImageID != "" {
		result, err = s.images.Replace(ctx, file, user.ProfileImageID)
	} else {
		targetID := fmt.Sprintf("profile_%s_%d", userID, nowUnixMilli())
		result, err = s.images.Upload(ctx, file, profileImageFolder, targetID)
	}
	if err != nil {
		return nil, fmt.Errorf("profile image upload failed: %w: %w", common.ErrBadRequest, err)
	}

	updated, err := repo.UpdateProfileImage(ctx, userID, result.ID, result.URL)
	if err != nil {
		s.logger.Error(ctx, "local image reference update failed after remote success",
			"user_id", userID, "image_id", result.ID, "error", err.Error())
		return nil, err
	}
	return updated.View(), nil
}

// DeleteProfileImage removes the remote object first and clears the local
// reference fields afterwards. A user without an image is a bad request.
func (s *UserService) DeleteProfileImage(ctx context.Context, userID string) (*models.UserView, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ProfileImageID == "" {
		return nil, fmt.Errorf("no profile image to delete: %w", common.ErrBadRequest)
	}

	if err := s.images.Delete(ctx, user.ProfileImageID); err != nil {
		return nil, fmt.Errorf("profile image delete failed: %w: %w", common.ErrBadRequest, err)
	}

	updated, err := repo.UpdateProfileImage(ctx, userID, "", "")
	if err != nil {
		s.logger.Error(ctx, "local image reference clear failed after remote delete",
			"user_id", userID, "error", err.Error())
		return nil, err
	}
	return updated.View(), nil
}
