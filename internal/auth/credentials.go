// Package auth stores the CLI's bearer token and issues and verifies the
// signed tokens the document store accepts.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// EnvToken overrides the credentials file when set.
const EnvToken = "TADA_TOKEN"

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the token's exp claim
}

// Expired reports whether the token carries an expiry that has passed.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && !now.Before(*ti.ExpiresAt)
}

// Credentials is the on-disk token file in Dir (normally ~/.tada).
type Credentials struct {
	Dir string
}

func NewCredentials(dir string) *Credentials {
	return &Credentials{Dir: dir}
}

func (c *Credentials) path() string {
	return filepath.Join(c.Dir, credFileName)
}

// Get returns the current token, or nil when not logged in.
func (c *Credentials) Get() (*TokenInfo, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		ti := &TokenInfo{Token: stripBearer(env), Source: "env"}
		if claims, err := Decode(ti.Token); err == nil {
			ti.ExpiresAt = claims.Expiry()
		}
		return ti, nil
	}

	// 2) file
	b, err := os.ReadFile(c.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// Set saves token owner-only. The expiry is read from the token itself.
func (c *Credentials) Set(token string) (*TokenInfo, error) {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	claims, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: claims.Expiry(),
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(c.path(), b, 0o600); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return &ti, nil
}

// Delete removes the credentials file; a missing file is fine.
func (c *Credentials) Delete() error {
	if err := os.Remove(c.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
