package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SqliteKeyHandleStore is a KeyHandleStore backed by a SQLite database
type SqliteKeyHandleStore struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewSqliteKeyHandleStore opens (or creates) the database at dbPath and
// runs migrations
func NewSqliteKeyHandleStore(dbPath string, log *logrus.Logger) (*SqliteKeyHandleStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	store := &SqliteKeyHandleStore{db: db, log: log}

	// Run migrations
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SqliteKeyHandleStore) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *SqliteKeyHandleStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS key_handles (
		method_digest TEXT PRIMARY KEY,
		key_handle TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert maps digest to handle. A digest maps to at most one handle.
func (s *SqliteKeyHandleStore) Insert(ctx context.Context, digest MethodDigest, handle KeyHandle) error {
	var existing string
	err := s.db.QueryRowContext(ctx,
		"SELECT key_handle FROM key_handles WHERE method_digest = ?", string(digest)).Scan(&existing)
	if err == nil {
		return ErrHandleExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to query key handle: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO key_handles (method_digest, key_handle) VALUES (?, ?)",
		string(digest), string(handle))
	if err != nil {
		return fmt.Errorf("failed to insert key handle: %w", err)
	}
	s.log.WithField("digest", string(digest)).Debug("stored key handle")
	return nil
}

// Get returns the handle mapped to digest
func (s *SqliteKeyHandleStore) Get(ctx context.Context, digest MethodDigest) (KeyHandle, error) {
	var handle string
	err := s.db.QueryRowContext(ctx,
		"SELECT key_handle FROM key_handles WHERE method_digest = ?", string(digest)).Scan(&handle)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrHandleNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key handle: %w", err)
	}
	return KeyHandle(handle), nil
}

// Delete removes the mapping for digest
func (s *SqliteKeyHandleStore) Delete(ctx context.Context, digest MethodDigest) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM key_handles WHERE method_digest = ?", string(digest))
	if err != nil {
		return fmt.Errorf("failed to delete key handle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHandleNotFound
	}
	return nil
}
