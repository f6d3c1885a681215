package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

type Store interface {
	Save(ctx context.Context, ch *Channel) error
	Get(ctx context.Context, userID string) (*Channel, error)
}

// Service resolves a usable LINE channel access token per user. Long-lived
// tokens are returned as stored; channel id/secret pairs are exchanged via
// the client-credentials grant and cached until shortly before expiry.
type Service struct {
	store    Store
	tokenURL string

	mu     sync.Mutex
	cached map[string]cachedToken
}

type cachedToken struct {
	token   string
	expires time.Time
}

func NewService(store Store, tokenURL string) *Service {
	return &Service{
		store:    store,
		tokenURL: tokenURL,
		cached:   make(map[string]cachedToken),
	}
}

func (s *Service) Save(ctx context.Context, ch *Channel) error {
	if err := s.store.Save(ctx, ch); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cached, ch.UserID)
	s.mu.Unlock()
	return nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Channel, error) {
	return s.store.Get(ctx, userID)
}

// AccessToken returns the token used to call the LINE Messaging API on
// behalf of userID. Returns ErrNotConnected when no channel is configured.
func (s *Service) AccessToken(ctx context.Context, userID string) (string, error) {
	ch, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	if ch.AccessToken != "" {
		return ch.AccessToken, nil
	}

	s.mu.Lock()
	if c, ok := s.cached[userID]; ok && time.Now().Before(c.expires) {
		s.mu.Unlock()
		return c.token, nil
	}
	s.mu.Unlock()

	conf := &clientcredentials.Config{
		ClientID:     ch.ChannelID,
		ClientSecret: ch.ChannelSecret,
		TokenURL:     s.tokenURL,
	}
	tok, err := conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to exchange channel credentials: %w", err)
	}

	s.mu.Lock()
	s.cached[userID] = cachedToken{
		token:   tok.AccessToken,
		expires: tok.Expiry.Add(-time.Minute),
	}
	s.mu.Unlock()

	return tok.AccessToken, nil
}
