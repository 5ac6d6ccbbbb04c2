package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/joshsymonds/mailtidy/internal/auth"
	"github.com/joshsymonds/mailtidy/internal/config"
	gc "github.com/joshsymonds/mailtidy/internal/gmail"
)

// NewAuthenticator builds the credential manager described by cfg.
func NewAuthenticator(cfg config.Config, logger *slog.Logger) (*auth.Authenticator, error) {
	oauthCfg, err := auth.ConfigFromFile(cfg.CredentialsFile, cfg.Scopes)
	if err != nil {
		return nil, err
	}
	flow := auth.LocalServerFlow{Port: cfg.AuthPort, Out: os.Stderr, Logger: logger}
	return auth.NewAuthenticator(oauthCfg, auth.FileStore{Path: cfg.TokenFile}, flow, logger), nil
}

// NewGmailClient authenticates and returns the narrow Gmail client.
func NewGmailClient(ctx context.Context, cfg config.Config, logger *slog.Logger) (gc.Client, error) {
	a, err := NewAuthenticator(cfg, logger)
	if err != nil {
		return nil, err
	}
	httpClient, err := a.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc, cfg.User), nil
}

func DefaultLogger() *slog.Logger {
	return NewLogger(false)
}

// NewLogger logs text to stderr at info, or debug when verbose is set.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
