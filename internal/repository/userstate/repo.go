// Package userstate persists per-user favorites, view history, and the
// experiment group assignment over a kv.Store. Each logical key holds one
// JSON value and is rewritten in full on every mutation (write-through).
package userstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/popopopopo1155/manga-reach/internal/domain"
	"github.com/popopopopo1155/manga-reach/internal/kv"
)

const (
	favoritesSuffix  = "favorites"
	historySuffix    = "history"
	experimentSuffix = "experiment"
)

// Repo reads and writes user state values.
type Repo struct {
	store  kv.Store
	prefix string
}

// New creates a user-state repository. prefix namespaces all keys
// (e.g. "manga-reach:").
func New(store kv.Store, prefix string) *Repo {
	return &Repo{store: store, prefix: prefix}
}

func (r *Repo) key(userID, suffix string) string {
	return r.prefix + "user:" + userID + ":" + suffix
}

// Favorites loads the persisted favorite id list for a user. An absent key
// yields an empty list.
func (r *Repo) Favorites(ctx context.Context, userID string) ([]string, error) {
	return r.getIDs(ctx, r.key(userID, favoritesSuffix))
}

// SaveFavorites persists the full favorite id list.
func (r *Repo) SaveFavorites(ctx context.Context, userID string, ids []string) error {
	return r.setIDs(ctx, r.key(userID, favoritesSuffix), ids)
}

// History loads the persisted history id list, most recent first.
func (r *Repo) History(ctx context.Context, userID string) ([]string, error) {
	return r.getIDs(ctx, r.key(userID, historySuffix))
}

// SaveHistory persists the full history id list.
func (r *Repo) SaveHistory(ctx context.Context, userID string, ids []string) error {
	return r.setIDs(ctx, r.key(userID, historySuffix), ids)
}

// ExperimentGroup loads the persisted group label. Returns "" for an absent
// key ("not yet assigned", not an error).
func (r *Repo) ExperimentGroup(ctx context.Context, userID string) (string, error) {
	data, err := r.store.Get(ctx, r.key(userID, experimentSuffix))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: load experiment group: %w", domain.ErrPersistence, err)
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return "", fmt.Errorf("%w: decode experiment group: %w", domain.ErrPersistence, err)
	}
	return label, nil
}

// SaveExperimentGroup persists the group label.
func (r *Repo) SaveExperimentGroup(ctx context.Context, userID, label string) error {
	data, err := json.Marshal(label)
	if err != nil {
		return fmt.Errorf("%w: encode experiment group: %w", domain.ErrPersistence, err)
	}
	if err := r.store.Set(ctx, r.key(userID, experimentSuffix), data); err != nil {
		return fmt.Errorf("%w: save experiment group: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *Repo) getIDs(ctx context.Context, key string) ([]string, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrPersistence, key, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrPersistence, key, err)
	}
	return ids, nil
}

func (r *Repo) setIDs(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrPersistence, key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("%w: save %s: %w", domain.ErrPersistence, key, err)
	}
	return nil
}
