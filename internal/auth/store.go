package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by a TokenStore that holds no credential yet.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the credential between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Remove() error
}

// FileStore keeps the token as JSON in a single file.
type FileStore struct {
	Path string
}

// Load returns ErrNoToken when the file does not exist.
func (f FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path) // #nosec G304 - path comes from config
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token %s: %w", f.Path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", f.Path, err)
	}
	return &tok, nil
}

// Save writes the token with 0600 permissions via a rename so a crash never
// leaves a truncated file behind.
func (f FileStore) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("save token: nil token")
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp token: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp token: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod temp token: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace token %s: %w", f.Path, err)
	}
	return nil
}

// Remove deletes the stored token. A missing file is not an error.
func (f FileStore) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token %s: %w", f.Path, err)
	}
	return nil
}

var _ TokenStore = FileStore{}
