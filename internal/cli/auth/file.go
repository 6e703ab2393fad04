package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	tokensBucket    = "tokens"
	credentialsFile = "credentials.db"
	lockTimeout     = 2 * time.Second
)

// FileStore keeps tokens in a bbolt file, one key per server URL.
// The database is opened for each operation so parallel CLI processes
// only contend for the file lock briefly.
type FileStore struct {
	path      string
	serverURL string
}

// NewFileStore returns a file-backed store for serverURL at path
func NewFileStore(path, serverURL string) *FileStore {
	return &FileStore{path: path, serverURL: serverURL}
}

// DefaultCredentialsPath returns ~/.config/taskdesk/credentials.db
func DefaultCredentialsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskdesk", credentialsFile), nil
}

func (s *FileStore) open(readOnly bool) (*bbolt.DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: lockTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("opening credentials db: %w", err)
	}
	return db, nil
}

// SaveToken writes the token for this server
func (s *FileStore) SaveToken(token string) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(tokensBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(s.serverURL), []byte(token))
	})
}

// LoadToken reads the token for this server, returning "" when none is stored
func (s *FileStore) LoadToken() (string, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return "", nil
	}

	db, err := s.open(true)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var token string
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tokensBucket))
		if b == nil {
			return nil
		}
		token = string(b.Get([]byte(s.serverURL)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token for this server. Missing tokens are not an error.
func (s *FileStore) DeleteToken() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tokensBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(s.serverURL))
	})
}
