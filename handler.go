package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// FavoritesHandler holds dependencies for the favorites handlers.
type FavoritesHandler struct {
	sessions *Sessions
	logger   *slog.Logger
}

// NewFavoritesHandler creates a new handler with the given sessions and logger.
func NewFavoritesHandler(sessions *Sessions, logger *slog.Logger) *FavoritesHandler {
	return &FavoritesHandler{sessions: sessions, logger: logger}
}

// authorize checks that the JWT subject matches the requested readerId.
func (h *FavoritesHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	readerID := r.PathValue("readerId")
	if readerID == "" {
		writeError(w, http.StatusBadRequest, "missing readerId")
		return "", false
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing claims")
		return "", false
	}

	if claims.Subject != readerID {
		writeError(w, http.StatusForbidden, "access denied")
		return "", false
	}

	return readerID, true
}

func (h *FavoritesHandler) store(w http.ResponseWriter, r *http.Request, readerID string) (*FavoritesStore, bool) {
	store, err := h.sessions.Get(r.Context(), readerID)
	if err != nil {
		h.logger.Error("sessions.Get failed", "error", err, "readerId", readerID)
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return nil, false
	}
	return store, true
}

// List returns the reader's favorites in insertion order.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	readerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	store, ok := h.store(w, r, readerID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, FavoritesResponse{
		ReaderID:  readerID,
		Favorites: store.Favorites(),
	})
}

// Toggle adds or removes a favorite, matched by path.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	readerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var item FavoriteItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if item.Path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	state, favorite, err := h.toggle(r, readerID, item)
	if err != nil {
		h.logger.Error("store.Toggle failed", "error", err, "readerId", readerID, "path", item.Path)
		writeError(w, http.StatusInternalServerError, "failed to save favorites")
		return
	}

	writeJSON(w, http.StatusOK, FavoritesResponse{
		ReaderID:  readerID,
		Favorites: state.Favorites,
		Favorite:  &favorite,
	})
}

// toggle applies item to the reader's current store. A store retired
// between lookup and toggle is replaced once.
func (h *FavoritesHandler) toggle(r *http.Request, readerID string, item FavoriteItem) (FavoritesState, bool, error) {
	for attempt := 0; ; attempt++ {
		store, err := h.sessions.Get(r.Context(), readerID)
		if err != nil {
			return FavoritesState{}, false, err
		}

		state, favorite, err := store.ToggleWithState(r.Context(), item)
		if errors.Is(err, ErrStoreRetired) && attempt == 0 {
			continue
		}
		return state, favorite, err
	}
}

// Status reports whether the title given in the query string is a favorite.
func (h *FavoritesHandler) Status(w http.ResponseWriter, r *http.Request) {
	readerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing title")
		return
	}

	store, ok := h.store(w, r, readerID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Title:    title,
		Favorite: store.IsFavorite()(title),
	})
}

// Clear removes all of the reader's favorites.
func (h *FavoritesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	readerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Forget(r.Context(), readerID); err != nil {
		h.logger.Error("sessions.Forget failed", "error", err, "readerId", readerID)
		writeError(w, http.StatusInternalServerError, "failed to clear favorites")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
