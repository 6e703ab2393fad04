package auth

import (
	"fmt"
)

// Store kinds accepted by Open
const (
	KindKeyring = "keyring"
	KindFile    = "file"
)

// TokenStore is the persisted credential for a single server
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	DeleteToken() error
}

var (
	_ TokenStore = (*KeyringStore)(nil)
	_ TokenStore = (*FileStore)(nil)
)

// Open returns the token store of the given kind for serverURL.
// An empty kind selects the OS keyring.
func Open(kind, serverURL string) (TokenStore, error) {
	switch kind {
	case "", KindKeyring:
		return NewKeyringStore(serverURL), nil
	case KindFile:
		path, err := DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path, serverURL), nil
	default:
		return nil, fmt.Errorf("unknown token store %q, must be one of: %s, %s", kind, KindKeyring, KindFile)
	}
}
