// Package badger implements kv.Store over an embedded BadgerDB database.
// This is the default backend: user state persists locally across restarts
// with no external service.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/popopopopo1155/manga-reach/internal/kv"
)

// Compile-time check: Store implements kv.Store.
var _ kv.Store = (*Store)(nil)

// Config holds open parameters for a Badger store.
type Config struct {
	// Path is the database directory. Created if absent.
	Path string
	// InMemory opens a non-persistent database (tests).
	InMemory bool
}

// Store implements kv.Store via an embedded BadgerDB.
type Store struct {
	db *badger.DB
}

// NewStore opens a Badger database at the configured path.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("path is required")
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, &kv.Error{Op: kv.OpGet, Err: err}
	}
	return value, nil
}

// Set stores a value at the given key. The update transaction commits the
// full value in one write.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &kv.Error{Op: kv.OpSet, Err: err}
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &kv.Error{Op: kv.OpDel, Err: err}
	}
	return nil
}

// Ping checks that the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &kv.Error{Op: kv.OpPing, Err: fmt.Errorf("database closed")}
	}
	return nil
}

// WaitForReady is immediate for an embedded store: Open already blocked
// until the database was usable.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close flushes and closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}
