// Package auth obtains and persists the OAuth credential used for Gmail.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Flow issues a brand new token, typically by asking the user to consent.
type Flow interface {
	Token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// Authenticator returns a valid credential, refreshing or re-issuing it as
// needed and persisting anything new before handing it out.
type Authenticator struct {
	Config *oauth2.Config
	Store  TokenStore
	Flow   Flow
	Logger *slog.Logger
}

// NewAuthenticator wires an Authenticator with a default logger.
func NewAuthenticator(cfg *oauth2.Config, store TokenStore, flow Flow, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Authenticator{Config: cfg, Store: store, Flow: flow, Logger: logger}
}

// ConfigFromFile reads an installed-app client secret downloaded from the
// Google Cloud console.
func ConfigFromFile(path string, scopes []string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from config
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse client secret %s: %w", path, err)
	}
	return cfg, nil
}

// Token returns the stored credential when it is still valid. An expired
// credential with a refresh token is refreshed once; anything else goes
// through the interactive flow. Refreshed and new tokens are saved.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	stored, err := a.Store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		stored = nil
	case err != nil:
		return nil, fmt.Errorf("load token: %w", err)
	}

	if stored != nil && stored.Valid() {
		a.Logger.DebugContext(ctx, "using stored token", slog.Time("expiry", stored.Expiry))
		return stored, nil
	}

	var tok *oauth2.Token
	if stored != nil && stored.RefreshToken != "" {
		a.Logger.InfoContext(ctx, "refreshing expired token", slog.Time("expiry", stored.Expiry))
		tok, err = a.Config.TokenSource(ctx, stored).Token()
		if err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
	} else {
		if a.Flow == nil {
			return nil, errors.New("no valid token and no interactive flow configured")
		}
		a.Logger.InfoContext(ctx, "starting interactive authorization")
		tok, err = a.Flow.Token(ctx, a.Config)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
	}

	if err := a.Store.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return tok, nil
}

// Client returns an HTTP client authorized with Token. Tokens refreshed by
// the client during a long run are persisted too.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	src := &savingSource{
		base:   a.Config.TokenSource(ctx, tok),
		store:  a.Store,
		logger: a.Logger,
		last:   tok.AccessToken,
	}
	return oauth2.NewClient(ctx, src), nil
}

// Reset forgets the stored credential so the next run starts a new flow.
func (a *Authenticator) Reset() error {
	return a.Store.Remove()
}

type savingSource struct {
	base   oauth2.TokenSource
	store  TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	if err := s.store.Save(tok); err != nil {
		// the new token is still usable for this run
		s.logger.Warn("persist refreshed token", "error", err)
	}
	s.last = tok.AccessToken
	return tok, nil
}
