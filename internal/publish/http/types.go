package http

import (
	"context"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
	"github.com/richmenu-studio/richmenu-backend/internal/publish/service"
)

// Publisher runs the publish orchestration.
type Publisher interface {
	Publish(ctx context.Context, in service.PublishInput) (*service.PublishOutput, error)
}

// JobReader serves job lookups for the progress-polling UI.
type JobReader interface {
	GetByID(ctx context.Context, userID, jobID string) (*domain.PublishJob, error)
}

// VersionReader serves version history lookups.
type VersionReader interface {
	ListByUser(ctx context.Context, userID, aliasID string) ([]domain.Version, error)
}

// TokenProvider resolves the user's LINE channel access token.
type TokenProvider interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// DraftMarker flips a draft's status once its menus have been published.
type DraftMarker interface {
	MarkPublished(ctx context.Context, userID, draftID string) error
}

// Handler handles HTTP requests for publishing and the publish ledger.
type Handler struct {
	publisher Publisher
	jobs      JobReader
	versions  VersionReader
	tokens    TokenProvider
	drafts    DraftMarker
}

// New creates a new Handler. drafts may be nil when draft tracking is
// disabled.
func New(publisher Publisher, jobs JobReader, versions VersionReader, tokens TokenProvider, drafts DraftMarker) *Handler {
	return &Handler{
		publisher: publisher,
		jobs:      jobs,
		versions:  versions,
		tokens:    tokens,
		drafts:    drafts,
	}
}
