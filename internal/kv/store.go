// Package kv implements the ordered key/value store backing Larder,
// using SQLite as the storage engine. Keys are raw bytes compared with
// memcmp semantics, so range scans follow the byte order that the schema
// package's key-prefix encoding relies on.
// See docs/ARCHITECTURE.md § Key/Value Store.
package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store lifecycle and operation errors.
var (
	ErrDetached    = errors.New("store is not attached")
	ErrAttached    = errors.New("store is already attached")
	ErrEmptyKey    = errors.New("key must not be empty")
	ErrKeyNotFound = errors.New("key not found")
)

// schemaSQL is the single ordered table: BLOB primary keys give memcmp
// iteration order, WITHOUT ROWID keeps the table clustered on the key.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    k BLOB PRIMARY KEY,
    v BLOB NOT NULL
) WITHOUT ROWID;
`

// Config holds the parameters for Store.Attach.
type Config struct {
	DataDir string
}

// Pair is one key/value entry returned by Scan.
type Pair struct {
	Key   []byte
	Value []byte
}

// Store is an ordered key/value store over a single SQLite database.
type Store struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
}

// New creates a store. The store is not attached; call Attach with a
// Config to open the database.
func New() *Store {
	return &Store{}
}

// Attach creates the data directory if needed, opens the SQLite database,
// and initializes the schema. Returns ErrAttached if already attached.
func (s *Store) Attach(config Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAttached
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "larder.db"))
	if err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("init schema: %w", err)
	}

	s.db = db
	s.attached = true
	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	return nil
}

// Get returns the value stored under key. Returns ErrKeyNotFound if the
// key is absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, ErrDetached
	}

	var value []byte
	err := s.db.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key, replacing any existing value.
func (s *Store) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrDetached
	}

	_, err := s.db.Exec(
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v`,
		key, value)
	return err
}

// Delete removes the entry under key. Returns ErrKeyNotFound if absent.
func (s *Store) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrDetached
	}

	res, err := s.db.Exec(`DELETE FROM kv WHERE k = ?`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// DeleteRange removes every entry with start <= key < end and returns the
// number of entries removed.
func (s *Store) DeleteRange(start, end []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return 0, ErrDetached
	}

	res, err := s.db.Exec(`DELETE FROM kv WHERE k >= ? AND k < ?`, start, end)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Scan returns all entries with start <= key < end in ascending key order.
func (s *Store) Scan(start, end []byte) ([]Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, ErrDetached
	}

	rows, err := s.db.Query(
		`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
