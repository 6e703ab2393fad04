// Package auth persists the CLI's access token between invocations.
package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "taskdesk-cli"
)

// keyringKey returns a unique key for storing access tokens per server
func keyringKey(serverURL string) string {
	return fmt.Sprintf("token-%s", serverURL)
}

// KeyringStore keeps the token for one server in the OS keychain/credential manager
type KeyringStore struct {
	serverURL string
}

// NewKeyringStore returns a keyring-backed store for serverURL
func NewKeyringStore(serverURL string) *KeyringStore {
	return &KeyringStore{serverURL: serverURL}
}

// SaveToken persists the token securely in the OS keychain
func (s *KeyringStore) SaveToken(token string) error {
	if err := keyring.Set(service, keyringKey(s.serverURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token, returning "" when none is stored
func (s *KeyringStore) LoadToken() (string, error) {
	token, err := keyring.Get(service, keyringKey(s.serverURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain
func (s *KeyringStore) DeleteToken() error {
	if err := keyring.Delete(service, keyringKey(s.serverURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
