package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/dbx"
	"github.com/NickM101/project-management-app/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query :=
		`SELECT id, name, assigned_user_id, created_at, updated_at FROM projects
		 WHERE id = $1
		 `

	p := &models.Project{}
	var assignee sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &assignee, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if assignee.Valid {
		s := assignee.String
		p.AssignedUserID = &s
	}
	return p, nil
}

func (r *PostgresRepository) Assign(ctx context.Context, projectID, userID string) error {
	query :=
		`UPDATE projects SET assigned_user_id = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UnassignUser(ctx context.Context, userID string) (int64, error) {
	query :=
		`UPDATE projects SET assigned_user_id = NULL, updated_at = now()
		 WHERE assigned_user_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
