package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richmenu-studio/richmenu-backend/internal/menu"
)

var ErrNotFound = errors.New("draft not found")

const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusActive    = "active"
)

// Draft is a saved menu graph that has not necessarily been published yet.
type Draft struct {
	ID          string       `json:"id"`
	UserID      string       `json:"-"`
	Name        string       `json:"name"`
	Menus       []*menu.Menu `json:"menus"`
	Status      string       `json:"status"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type draftData struct {
	Menus []*menu.Menu `json:"menus"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Save inserts or updates a draft. A missing id means insert; the generated
// id is written back into d.
func (r *Repo) Save(ctx context.Context, d *Draft) error {
	if d.UserID == "" {
		return fmt.Errorf("user id required")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		if d.ScheduledAt != nil {
			// Recorded only; nothing in this service executes scheduled
			// publishes.
			d.Status = StatusScheduled
		} else {
			d.Status = StatusDraft
		}
	}

	data, err := json.Marshal(draftData{Menus: d.Menus})
	if err != nil {
		return fmt.Errorf("failed to marshal draft data: %w", err)
	}

	const q = `
insert into drafts (id, user_id, name, data, status, scheduled_at, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, now(), now())
on conflict (id) do update
set
  name = excluded.name,
  data = excluded.data,
  status = excluded.status,
  scheduled_at = excluded.scheduled_at,
  updated_at = now()
where drafts.user_id = excluded.user_id
returning created_at, updated_at;
`
	err = r.db.QueryRow(ctx, q, d.ID, d.UserID, d.Name, data, d.Status, d.ScheduledAt).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// conflict row belongs to another user
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get returns a single draft owned by userID.
func (r *Repo) Get(ctx context.Context, userID, draftID string) (*Draft, error) {
	const q = `
select id, user_id, name, data, status, scheduled_at, created_at, updated_at
from drafts
where id = $1 and user_id = $2;
`
	row := r.db.QueryRow(ctx, q, draftID, userID)
	d, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// List returns all of userID's drafts, newest first.
func (r *Repo) List(ctx context.Context, userID string) ([]*Draft, error) {
	const q = `
select id, user_id, name, data, status, scheduled_at, created_at, updated_at
from drafts
where user_id = $1
order by updated_at desc;
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	out := make([]*Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes a draft owned by userID.
func (r *Repo) Delete(ctx context.Context, userID, draftID string) error {
	tag, err := r.db.Exec(ctx, `delete from drafts where id = $1 and user_id = $2`, draftID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPublished flips a draft's status after a successful publish.
func (r *Repo) MarkPublished(ctx context.Context, userID, draftID string) error {
	tag, err := r.db.Exec(ctx,
		`update drafts set status = $3, updated_at = now() where id = $1 and user_id = $2`,
		draftID, userID, StatusPublished)
	if err != nil {
		return fmt.Errorf("failed to mark draft published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDraft(row pgx.Row) (*Draft, error) {
	var (
		d    Draft
		data []byte
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &data, &d.Status, &d.ScheduledAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	var dd draftData
	if err := json.Unmarshal(data, &dd); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft data: %w", err)
	}
	d.Menus = dd.Menus
	return &d, nil
}
