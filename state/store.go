// Package state persists small per-user runtime state (the last active
// provider and model) to a sqlite database in the data directory.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyLastProvider = "last_active_provider"
	keyLastModel    = "last_active_model"
)

// Store is a key-value store over state.db.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize state database: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM user_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state key %q: %w", key, err)
	}
	return value, nil
}

// Set upserts key=value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write state key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM user_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete state key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSelection implements manager.SelectionStore.
func (s *Store) SaveSelection(providerID, modelID string) error {
	if err := s.Set(keyLastProvider, providerID); err != nil {
		return err
	}
	return s.Set(keyLastModel, modelID)
}

// LoadSelection implements manager.SelectionStore.
func (s *Store) LoadSelection() (string, string, error) {
	providerID, err := s.Get(keyLastProvider)
	if err != nil {
		return "", "", err
	}
	modelID, err := s.Get(keyLastModel)
	if err != nil {
		return "", "", err
	}
	return providerID, modelID, nil
}
