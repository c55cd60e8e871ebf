package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("TADA_BACKEND", "")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, cfg.Backend)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, filepath.Join(".", "tada.sqlite"), cfg.ResolvedSQLitePath())
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("TADA_BACKEND", "Cloud")
	t.Setenv("TADA_CLOUD_URL", "https://todos.example.com")
	t.Setenv("TADA_CREDENTIALS_DIR", "/tmp/creds")
	t.Setenv("TADA_NO_COLOR", "true")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, BackendCloud, cfg.Backend)
	assert.Equal(t, "https://todos.example.com", cfg.CloudURL)
	assert.True(t, cfg.NoColor)

	dir, err := cfg.ResolvedCredentialsDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/creds", dir)
}

func TestNew_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("TADA_BACKEND", "firestore")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported TADA_BACKEND")
}
