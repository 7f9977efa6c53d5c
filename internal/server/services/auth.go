// Package services contains the server-side business logic: the
// authentication service (login, token validation, refresh rotation,
// password change) and the user lifecycle service.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/dbx"
	"github.com/NickM101/project-management-app/internal/logging"
	"github.com/NickM101/project-management-app/internal/server/auth"
	"github.com/NickM101/project-management-app/internal/server/config"
	"github.com/NickM101/project-management-app/internal/server/models"
	"github.com/NickM101/project-management-app/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService provides authentication-related operations:
//   - Login: verify credentials and mint tokens
//   - ValidateToken: turn a bearer token into an Identity
//   - Refresh: rotate refresh tokens and mint new access tokens
//   - ChangePassword: self-service and administrative password rotation
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashCost                     int
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		logger:                       l.With("module", "auth_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashCost:                     cfg.PasswordHashCost,
	}
}

// Login verifies the email/password pair against an active user and, on
// success, returns a new TokenPair. Unknown email, inactive user, and wrong
// password all return common.ErrUnauthorized; the dummy bcrypt comparison on
// the first two paths keeps their latency in line with a real check.
//
// The last_login stamp is updated on a detached goroutine; the login result
// does not wait for it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}
	if !user.IsActive {
		auth.BurnPasswordCheck(password)
		return nil, common.ErrUnauthorized
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, user.ID, user.Role, s.db)
	if err != nil {
		return nil, err
	}

	go s.updateLastLogin(context.WithoutCancel(ctx), user.ID)

	return pair, nil
}

// updateLastLogin is best effort: a failure is logged and otherwise ignored.
func (s *AuthService) updateLastLogin(ctx context.Context, userID string) {
	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateLastLogin(ctx, userID); err != nil {
		s.logger.Warn(ctx, "last_login update failed", "user_id", userID, "error", err.Error())
	}
}

// ValidateToken checks signature and expiry and returns the caller Identity.
// Any failure is common.ErrUnauthorized.
func (s *AuthService) ValidateToken(token string) (*auth.Identity, error) {
	identity, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	return identity, nil
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Expired tokens yield common.ErrRefreshTokenExpired,
// unknown ones common.ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, common.ErrUnauthorized
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user.ID, user.Role, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// ChangePassword re-hashes the user's password at the current cost factor.
// In self-service mode (bypassOldCheck false) the old password must verify
// against the stored hash, otherwise common.ErrBadRequest. Administrative
// mode skips the check. All of the user's refresh tokens are revoked in the
// same transaction, so existing sessions end at access-token expiry.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string, bypassOldCheck bool) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !bypassOldCheck && !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return fmt.Errorf("invalid credentials: %w", common.ErrBadRequest)
	}

	hash, err := auth.HashPassword(newPassword, s.hashCost)
	if err != nil {
		return common.ErrInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, userID)
	})
}

// --- helpers below ---

func (s *AuthService) generateAccessToken(userID string, role models.Role) (string, error) {
	return auth.GenerateToken(userID, role, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *AuthService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AuthService) generateTokenPair(ctx context.Context, userID string, role models.Role, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID, role)
	if err != nil {
		return nil, common.ErrInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
