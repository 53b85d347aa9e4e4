package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrStoreRetired is returned by mutations on a store that has been
// replaced by a newer instance for the same reader.
var ErrStoreRetired = errors.New("favorites store has been retired")

// FavoritesStore holds one reader's favorites and mirrors every mutation
// through its persistence adapter.
type FavoritesStore struct {
	mu      sync.Mutex
	state   FavoritesState
	persist PersistenceAdapter
	retired bool
}

// NewFavoritesStore creates an empty store and rehydrates it from the
// adapter. A nil adapter means no persistence.
func NewFavoritesStore(ctx context.Context, adapter PersistenceAdapter) (*FavoritesStore, error) {
	if adapter == nil {
		adapter = NopPersistence{}
	}

	s := &FavoritesStore{
		state:   FavoritesState{Favorites: []FavoriteItem{}},
		persist: adapter,
	}

	restored, found, err := adapter.Restore(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring favorites: %w", err)
	}
	if found && restored.Favorites != nil {
		s.state = restored
	}

	return s, nil
}

// Toggle adds the item when no favorite has its path and removes the
// existing entry otherwise. Only the path is matched. The in-memory change
// is kept when saving fails.
func (s *FavoritesStore) Toggle(ctx context.Context, item FavoriteItem) error {
	_, _, err := s.ToggleWithState(ctx, item)
	return err
}

// ToggleWithState toggles like Toggle and returns the resulting state and
// whether item's path is now a favorite, both taken under the same lock.
func (s *FavoritesStore) ToggleWithState(ctx context.Context, item FavoriteItem) (FavoritesState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return FavoritesState{}, false, ErrStoreRetired
	}

	toggleFavorite(&s.state, item)

	snap := s.snapshotLocked()
	favorite := indexByPath(snap.Favorites, item.Path) != -1
	if err := s.persist.Save(ctx, snap); err != nil {
		return snap, favorite, fmt.Errorf("saving favorites: %w", err)
	}
	return snap, favorite, nil
}

// Reset empties the store and removes the persisted record.
func (s *FavoritesStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retired {
		return ErrStoreRetired
	}

	s.state = FavoritesState{Favorites: []FavoriteItem{}}

	if err := s.persist.Remove(ctx); err != nil {
		return fmt.Errorf("removing favorites: %w", err)
	}
	return nil
}

// retire stops further mutations. It waits for an in-flight mutation to
// finish, so its save lands before a replacement store reads storage.
func (s *FavoritesStore) retire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retired = true
}

// IsFavorite binds to the current state and returns a predicate reporting
// whether exactly one favorite carries the given title.
func (s *FavoritesStore) IsFavorite() func(title string) bool {
	return isFavorite(s.Snapshot())
}

// Favorites returns a copy of the favorites in insertion order.
func (s *FavoritesStore) Favorites() []FavoriteItem {
	return s.Snapshot().Favorites
}

// Snapshot returns a copy of the whole state.
func (s *FavoritesStore) Snapshot() FavoritesState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *FavoritesStore) snapshotLocked() FavoritesState {
	return FavoritesState{Favorites: slices.Clone(s.state.Favorites)}
}

func toggleFavorite(state *FavoritesState, item FavoriteItem) {
	i := indexByPath(state.Favorites, item.Path)
	if i == -1 {
		state.Favorites = append(state.Favorites, FavoriteItem{Title: item.Title, Path: item.Path})
		return
	}
	state.Favorites = slices.Delete(state.Favorites, i, i+1)
}

// isFavorite matches on title, not path: a title stored twice counts as
// not favorite.
func isFavorite(state FavoritesState) func(title string) bool {
	return func(title string) bool {
		n := 0
		for _, f := range state.Favorites {
			if f.Title == title {
				n++
			}
		}
		return n == 1
	}
}

func indexByPath(items []FavoriteItem, path string) int {
	return slices.IndexFunc(items, func(f FavoriteItem) bool {
		return f.Path == path
	})
}
