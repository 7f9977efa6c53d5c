package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/dbx"
	"github.com/NickM101/project-management-app/internal/server/models"
)

const uniqueViolationCode = "23505"

const userColumns = `id, email, name, password_hash, role, is_active, profile_image_id, profile_image_url, last_login, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.ProfileImageID, &u.ProfileImageURL, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Create inserts a new user. A duplicate email maps to common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, name, password_hash, role, is_active, profile_image_id, profile_image_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.IsActive,
		user.ProfileImageID, user.ProfileImageURL).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// List returns users matching the filter. WithoutProject selects users no
// project currently points at; the foreign key lives on the projects table.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*models.User, error) {
	query := `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.is_active, u.profile_image_id, u.profile_image_url, u.last_login, u.created_at, u.updated_at FROM users u`

	var args []any
	where := ""
	appendCond := func(cond string) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	if f.WithoutProject {
		query += ` LEFT JOIN projects p ON p.assigned_user_id = u.id`
		appendCond(`p.id IS NULL`)
	}
	if f.ActiveOnly {
		appendCond(`u.is_active = TRUE`)
	}
	if f.Role != "" {
		args = append(args, f.Role)
		appendCond(fmt.Sprintf(`u.role = $%d`, len(args)))
	}

	query += where + ` ORDER BY u.created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// Update applies a partial merge. Nil fields keep their stored value via
// COALESCE, so one statement covers both update shapes.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.AdminUserUpdate) (*models.User, error) {
	query :=
		`UPDATE users
		 SET email = COALESCE($2, email),
		     name = COALESCE($3, name),
		     role = COALESCE($4, role),
		     is_active = COALESCE($5, is_active),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	var role *string
	if upd.Role != nil {
		s := string(*upd.Role)
		role = &s
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, upd.Email, upd.Name, role, upd.IsActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = now() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateProfileImage sets both image reference fields. Empty strings clear
// them; the two fields always change together.
func (r *PostgresRepository) UpdateProfileImage(ctx context.Context, id, imageID, imageURL string) (*models.User, error) {
	query :=
		`UPDATE users
		 SET profile_image_id = $2, profile_image_url = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, imageID, imageURL))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Delete removes the row permanently. Deactivation is a separate, reversible
// flag handled through Update.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
