// Package config resolves mailtidy settings from defaults, config.yaml,
// .env and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"google.golang.org/api/gmail/v1"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the optional settings file inside the config directory.
	FileName = "config.yaml"

	defaultCredentials = "credentials.json"
	defaultToken       = "token.json"
	defaultUser        = "me"
	defaultRPS         = 4
)

// Environment variables consulted after config.yaml.
const (
	EnvCredentials = "MAILTIDY_CREDENTIALS"
	EnvToken       = "MAILTIDY_TOKEN"
	EnvUser        = "MAILTIDY_USER"
	EnvRPS         = "MAILTIDY_RPS"
)

// DefaultScopes covers reading, relabeling and permanent deletion.
// messages.delete is only permitted with the full mail scope.
func DefaultScopes() []string {
	return []string{gmail.GmailReadonlyScope, gmail.GmailModifyScope, gmail.MailGoogleComScope}
}

// Config is the resolved configuration shared by every command.
type Config struct {
	Dir             string   `yaml:"-"`
	CredentialsFile string   `yaml:"credentials_file"`
	TokenFile       string   `yaml:"token_file"`
	User            string   `yaml:"user"`
	Scopes          []string `yaml:"scopes"`
	PageSize        int      `yaml:"page_size"`
	RPS             int      `yaml:"rps"`
	AuthPort        int      `yaml:"auth_port"`
}

// DefaultDir is $HOME/.mailtidy.
func DefaultDir() string {
	return os.ExpandEnv("$HOME/.mailtidy")
}

// Default returns the built-in settings rooted at dir.
func Default(dir string) Config {
	return Config{
		Dir:             dir,
		CredentialsFile: filepath.Join(dir, defaultCredentials),
		TokenFile:       filepath.Join(dir, defaultToken),
		User:            defaultUser,
		Scopes:          DefaultScopes(),
		RPS:             defaultRPS,
	}
}

// Load reads dir/config.yaml when present, then .env from the working
// directory, then the MAILTIDY_* environment variables.
func Load(dir string) (Config, error) {
	cfg := Default(dir)
	if err := cfg.mergeFile(filepath.Join(dir, FileName)); err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path derived from user config dir
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if file.CredentialsFile != "" {
		c.CredentialsFile = c.resolve(file.CredentialsFile)
	}
	if file.TokenFile != "" {
		c.TokenFile = c.resolve(file.TokenFile)
	}
	if file.User != "" {
		c.User = file.User
	}
	if len(file.Scopes) > 0 {
		c.Scopes = file.Scopes
	}
	if file.PageSize != 0 {
		c.PageSize = file.PageSize
	}
	if file.RPS != 0 {
		c.RPS = file.RPS
	}
	if file.AuthPort != 0 {
		c.AuthPort = file.AuthPort
	}
	return nil
}

func (c *Config) mergeEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvCredentials)); v != "" {
		c.CredentialsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.TokenFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		c.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRPS)); v != "" {
		rps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRPS, err)
		}
		c.RPS = rps
	}
	return nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate rejects settings the Gmail API would refuse.
func (c Config) Validate() error {
	if c.CredentialsFile == "" {
		return errors.New("credentials file must be set")
	}
	if c.TokenFile == "" {
		return errors.New("token file must be set")
	}
	if c.User == "" {
		return errors.New("user must be set")
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	if c.PageSize < 0 || c.PageSize > 500 {
		return fmt.Errorf("page size must be between 0 and 500, got %d", c.PageSize)
	}
	if c.AuthPort < 0 || c.AuthPort > 65535 {
		return fmt.Errorf("auth port out of range: %d", c.AuthPort)
	}
	return nil
}
