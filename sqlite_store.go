package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements KeyValueStorage on an embedded SQLite database.
type SQLiteStorage struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// NewSQLiteStorage opens (or creates) the database file at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return newSQLiteStorage(db)
}

// NewInMemorySQLiteStorage creates a storage backed by a private in-memory
// database.
func NewInMemorySQLiteStorage() (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to :memory: gets its own database.
	db.SetMaxOpenConns(1)
	return newSQLiteStorage(db)
}

func newSQLiteStorage(db *sql.DB) (*SQLiteStorage, error) {
	s := &SQLiteStorage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sqlite storage: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

func (s *SQLiteStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrStorageClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key: %w", err)
	}

	return value, true, nil
}

func (s *SQLiteStorage) SetItem(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing key: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing key: %w", err)
	}

	return nil
}

// Close closes the database. Further calls return ErrStorageClosed.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
