package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
)

// VersionRepository handles PostgreSQL operations for rich menu versions.
// Versions are an append-only ledger; history rows are never overwritten,
// the current version per alias is the one with is_active = true.
type VersionRepository struct {
	db *sql.DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *sql.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// Insert appends a new version row.
func (r *VersionRepository) Insert(ctx context.Context, v *domain.Version) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO richmenu_versions (id, user_id, draft_id, job_id, alias_id, rich_menu_id, menu_name, is_main, is_active, created_at)
VALUES ($1, $2, nullif($3,''), nullif($4,''), $5, $6, $7, $8, $9, $10);
`
	_, err := r.db.ExecContext(ctx, q,
		v.ID, v.UserID, v.DraftID, v.JobID, v.AliasID, v.RichMenuID,
		v.MenuName, v.IsMain, v.IsActive, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

// DeactivateByAlias marks every version under the alias inactive. Callers
// run this before inserting the replacement active version.
func (r *VersionRepository) DeactivateByAlias(ctx context.Context, userID, aliasID string) error {
	const q = `
UPDATE richmenu_versions
SET is_active = false
WHERE user_id = $1 AND alias_id = $2 AND is_active = true;
`
	if _, err := r.db.ExecContext(ctx, q, userID, aliasID); err != nil {
		return fmt.Errorf("failed to deactivate versions: %w", err)
	}
	return nil
}

// ListByUser returns the user's version history, newest first. aliasID
// narrows the result to one alias when non-empty.
func (r *VersionRepository) ListByUser(ctx context.Context, userID, aliasID string) ([]domain.Version, error) {
	const base = `
SELECT id, user_id, coalesce(draft_id::text,''), coalesce(job_id::text,''), alias_id, rich_menu_id, menu_name, is_main, is_active, created_at
FROM richmenu_versions
WHERE user_id = $1`

	var (
		rows *sql.Rows
		err  error
	)
	if aliasID != "" {
		rows, err = r.db.QueryContext(ctx, base+` AND alias_id = $2 ORDER BY created_at DESC;`, userID, aliasID)
	} else {
		rows, err = r.db.QueryContext(ctx, base+` ORDER BY created_at DESC;`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Version, 0, 16)
	for rows.Next() {
		var v domain.Version
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.DraftID, &v.JobID, &v.AliasID, &v.RichMenuID,
			&v.MenuName, &v.IsMain, &v.IsActive, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
