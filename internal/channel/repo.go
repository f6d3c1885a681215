package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotConnected = errors.New("no LINE channel configured for user")

// Channel is a user's LINE channel credential. Either a long-lived access
// token or a channel id/secret pair (exchanged for short-lived tokens) must
// be present.
type Channel struct {
	UserID        string    `json:"user_id"`
	AccessToken   string    `json:"-"`
	ChannelID     string    `json:"channel_id,omitempty"`
	ChannelSecret string    `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Save upserts the user's channel credential.
func (r *Repo) Save(ctx context.Context, ch *Channel) error {
	if ch.UserID == "" {
		return fmt.Errorf("user id required")
	}
	if ch.AccessToken == "" && (ch.ChannelID == "" || ch.ChannelSecret == "") {
		return fmt.Errorf("access token or channel id/secret required")
	}

	const q = `
insert into line_channels (user_id, access_token, channel_id, channel_secret, updated_at)
values ($1, nullif($2,''), nullif($3,''), nullif($4,''), now())
on conflict (user_id) do update
set
  access_token = excluded.access_token,
  channel_id = excluded.channel_id,
  channel_secret = excluded.channel_secret,
  updated_at = now();
`
	if _, err := r.db.Exec(ctx, q, ch.UserID, ch.AccessToken, ch.ChannelID, ch.ChannelSecret); err != nil {
		return fmt.Errorf("failed to save channel: %w", err)
	}
	return nil
}

// Get returns the user's channel credential, or ErrNotConnected.
func (r *Repo) Get(ctx context.Context, userID string) (*Channel, error) {
	const q = `
select user_id, coalesce(access_token,''), coalesce(channel_id,''), coalesce(channel_secret,''), updated_at
from line_channels
where user_id = $1;
`
	var ch Channel
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&ch.UserID, &ch.AccessToken, &ch.ChannelID, &ch.ChannelSecret, &ch.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &ch, nil
}
