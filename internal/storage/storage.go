// Package storage persists small namespaced blobs in a local SQLite file.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tasksync/internal/store"
)

// DB is a namespace-keyed store backed by SQLite.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *DB) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Get returns the value stored under namespace, or store.ErrNoData.
func (s *DB) Get(namespace string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE namespace = ?;`, namespace).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", namespace, err)
	}
	return value, nil
}

// Put stores value under namespace, replacing any previous value.
func (s *DB) Put(namespace string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
INSERT INTO kv (namespace, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		namespace, value, now)
	if err != nil {
		return fmt.Errorf("write %s: %w", namespace, err)
	}
	return nil
}

// Delete removes namespace. Deleting a missing namespace is not an error.
func (s *DB) Delete(namespace string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ?;`, namespace)
	return err
}

func dsn(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Memory is an in-process store with the same contract as DB.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns the value stored under namespace, or store.ErrNoData.
func (m *Memory) Get(namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[namespace]
	if !ok {
		return nil, store.ErrNoData
	}
	return append([]byte(nil), v...), nil
}

// Put stores value under namespace.
func (m *Memory) Put(namespace string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[namespace] = append([]byte(nil), value...)
	return nil
}
