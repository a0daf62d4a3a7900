// Package kv defines the persisted key-value store contract consumed by the
// user-state repositories. Two backends implement it: an embedded BadgerDB
// store (default) and a Redis store for shared deployments.
package kv

import (
	"context"
	"time"
)

// Store is a persisted key-value store. Each Set writes one full value
// atomically; concurrent writers to the same key are last-write-wins.
type Store interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound for absent keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value at the given key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
	// Ping checks store availability.
	Ping(ctx context.Context) error
	// WaitForReady blocks until the store responds or the timeout expires.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	// Close releases store resources.
	Close()
}
