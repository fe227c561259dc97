package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// TokenStore persists the single bearer token for this installation, the
// way the browser client keeps it in localStorage under one key. One store
// path means one active session.
type TokenStore struct {
	path string
}

// NewTokenStore creates a store backed by the file at path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the file the token is kept in
func (s *TokenStore) Path() string {
	return s.path
}

// Load returns the persisted token, or "" when none is stored
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating the parent directory if needed. The file
// is user-readable only.
func (s *TokenStore) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	debug.Debug("[STORE] Persisted token to %s", s.path)
	return nil
}

// Clear removes the persisted token. Clearing an empty store is not an error.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	debug.Debug("[STORE] Cleared persisted token")
	return nil
}
