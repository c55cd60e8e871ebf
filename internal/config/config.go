package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Backend selects which version of the app runs.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
	BackendCloud  Backend = "cloud"
)

// Config is read from TADA_* environment variables, e.g. TADA_BACKEND, TADA_CLOUD_URL.
type Config struct {
	Backend Backend `envconfig:"BACKEND" default:"json"`

	// Local backends
	DataDir    string `envconfig:"DATA_DIR" default:"."`
	SQLitePath string `envconfig:"SQLITE_PATH" default:""`

	// Cloud backend
	CloudURL       string `envconfig:"CLOUD_URL" default:"http://localhost:8787"`
	CredentialsDir string `envconfig:"CREDENTIALS_DIR" default:""`

	// Document store (tada serve)
	ServerAddr  string `envconfig:"SERVER_ADDR" default:"localhost:8787"`
	ServerDB    string `envconfig:"SERVER_DB" default:"tada-docstore.sqlite"`
	TokenSecret string `envconfig:"TOKEN_SECRET" default:""`

	// Output
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
	Theme    string `envconfig:"THEME" default:"classic"`
	NoColor  bool   `envconfig:"NO_COLOR" default:"false"`
}

// New parses the environment and validates the result.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TADA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	switch c.Backend {
	case BackendMemory, BackendJSON, BackendSQLite, BackendCloud:
	default:
		return fmt.Errorf("unsupported TADA_BACKEND: %q (want memory|json|sqlite|cloud)", c.Backend)
	}
	if c.Backend == BackendCloud && strings.TrimSpace(c.CloudURL) == "" {
		return fmt.Errorf("TADA_CLOUD_URL is required for the cloud backend")
	}
	return nil
}

// ResolvedSQLitePath defaults the sqlite file into DataDir.
func (c *Config) ResolvedSQLitePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "tada.sqlite")
}

// ResolvedCredentialsDir defaults to ~/.tada.
func (c *Config) ResolvedCredentialsDir() (string, error) {
	if c.CredentialsDir != "" {
		return c.CredentialsDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}
