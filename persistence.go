package main

import (
	"context"
	"encoding/json"
	"fmt"
)

// PersistenceAdapter loads and saves a store's state.
type PersistenceAdapter interface {
	Restore(ctx context.Context) (state FavoritesState, found bool, err error)
	Save(ctx context.Context, state FavoritesState) error
	Remove(ctx context.Context) error
}

// NopPersistence is used when no storage medium is available.
type NopPersistence struct{}

func (NopPersistence) Restore(context.Context) (FavoritesState, bool, error) {
	return FavoritesState{}, false, nil
}

func (NopPersistence) Save(context.Context, FavoritesState) error {
	return nil
}

func (NopPersistence) Remove(context.Context) error {
	return nil
}

// StoragePersistence mirrors the state as JSON under a single storage key.
type StoragePersistence struct {
	storage KeyValueStorage
	key     string

	// Filter reduces the state before it is written. Nil saves everything.
	Filter func(FavoritesState) FavoritesState
}

// KeepNewest returns a Filter that persists only the n most recently added
// favorites. n <= 0 returns nil, which persists everything.
func KeepNewest(n int) func(FavoritesState) FavoritesState {
	if n <= 0 {
		return nil
	}
	return func(s FavoritesState) FavoritesState {
		if len(s.Favorites) > n {
			s.Favorites = s.Favorites[len(s.Favorites)-n:]
		}
		return s
	}
}

// NewStoragePersistence returns an adapter writing to key in storage.
func NewStoragePersistence(storage KeyValueStorage, key string) *StoragePersistence {
	return &StoragePersistence{storage: storage, key: key}
}

// Key returns the storage key the state is kept under.
func (p *StoragePersistence) Key() string {
	return p.key
}

func (p *StoragePersistence) Restore(ctx context.Context) (FavoritesState, bool, error) {
	raw, found, err := p.storage.GetItem(ctx, p.key)
	if err != nil {
		return FavoritesState{}, false, fmt.Errorf("reading %q: %w", p.key, err)
	}
	if !found || raw == "" {
		return FavoritesState{}, false, nil
	}

	var state FavoritesState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return FavoritesState{}, false, fmt.Errorf("%w: key %q: %v", ErrCorruptState, p.key, err)
	}
	if state.Favorites == nil {
		state.Favorites = []FavoriteItem{}
	}

	return state, true, nil
}

func (p *StoragePersistence) Save(ctx context.Context, state FavoritesState) error {
	if p.Filter != nil {
		state = p.Filter(state)
	}
	if state.Favorites == nil {
		state.Favorites = []FavoriteItem{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}

	if err := p.storage.SetItem(ctx, p.key, string(raw)); err != nil {
		return fmt.Errorf("writing %q: %w", p.key, err)
	}
	return nil
}

func (p *StoragePersistence) Remove(ctx context.Context) error {
	if err := p.storage.RemoveItem(ctx, p.key); err != nil {
		return fmt.Errorf("removing %q: %w", p.key, err)
	}
	return nil
}
