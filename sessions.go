package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Sessions owns one FavoritesStore per reader. Stores are built lazily,
// rehydrated from storage, and dropped after sitting idle for the TTL.
//
// At most one store per reader accepts mutations: a store that leaves the
// cache is retired before its replacement reads storage.
type Sessions struct {
	mu      sync.Mutex
	storage KeyValueStorage
	prefix  string
	filter  func(FavoritesState) FavoritesState
	stores  *cache.Cache
	live    map[string]*FavoritesStore
	logger  *slog.Logger
}

// NewSessions creates a session registry. A nil storage keeps every store
// in memory only. A ttl <= 0 keeps stores until the process exits.
func NewSessions(storage KeyValueStorage, keyPrefix string, ttl time.Duration, logger *slog.Logger) *Sessions {
	expiry, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiry, cleanup = ttl, ttl
	}

	s := &Sessions{
		storage: storage,
		prefix:  keyPrefix,
		stores:  cache.New(expiry, cleanup),
		live:    make(map[string]*FavoritesStore),
		logger:  logger,
	}
	s.stores.OnEvicted(s.evicted)

	return s
}

// UseFilter sets the reducer applied before each save for stores created
// from now on.
func (s *Sessions) UseFilter(filter func(FavoritesState) FavoritesState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = filter
}

func (s *Sessions) key(readerID string) string {
	return s.prefix + readerID
}

func (s *Sessions) adapter(readerID string) PersistenceAdapter {
	if s.storage == nil {
		return NopPersistence{}
	}
	p := NewStoragePersistence(s.storage, s.key(readerID))
	p.Filter = s.filter
	return p
}

// evicted runs when the janitor drops an expired store. It is never called
// with s.mu held: nothing in Sessions deletes from the cache directly.
func (s *Sessions) evicted(readerID string, v any) {
	store := v.(*FavoritesStore)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live[readerID] == store {
		store.retire()
		delete(s.live, readerID)
	}
}

// Get returns the reader's store, creating and rehydrating it on first use.
func (s *Sessions) Get(ctx context.Context, readerID string) (*FavoritesStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.stores.Get(readerID); ok {
		store := v.(*FavoritesStore)
		// refresh idle expiry
		s.stores.SetDefault(readerID, store)
		return store, nil
	}

	// Expired but not yet collected by the janitor.
	if old, ok := s.live[readerID]; ok {
		old.retire()
		delete(s.live, readerID)
	}

	store, err := NewFavoritesStore(ctx, s.adapter(readerID))
	if err != nil {
		return nil, fmt.Errorf("loading favorites for %s: %w", readerID, err)
	}

	s.live[readerID] = store
	s.stores.SetDefault(readerID, store)
	s.logger.Debug("favorites store loaded", "readerId", readerID, "count", len(store.Favorites()))

	return store, nil
}

// Forget empties the reader's favorites and removes the persisted record.
// A cached store is reset in place, so requests already holding it see the
// empty list.
func (s *Sessions) Forget(ctx context.Context, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.live[readerID]; ok {
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("clearing favorites for %s: %w", readerID, err)
		}
		return nil
	}

	if s.storage == nil {
		return nil
	}
	if err := s.storage.RemoveItem(ctx, s.key(readerID)); err != nil {
		return fmt.Errorf("removing favorites for %s: %w", readerID, err)
	}
	return nil
}

// Len returns the number of cached stores, expired ones included until the
// janitor runs.
func (s *Sessions) Len() int {
	return s.stores.ItemCount()
}
