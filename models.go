package main

// FavoriteItem is a documentation page the reader marked as favorite.
// Path identifies the page; Title is display metadata.
type FavoriteItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// FavoritesState is the persisted shape of a reader's favorites.
type FavoritesState struct {
	Favorites []FavoriteItem `json:"favorites"`
}

// FavoritesResponse is returned for list and toggle requests.
type FavoritesResponse struct {
	ReaderID  string         `json:"readerId"`
	Favorites []FavoriteItem `json:"favorites"`
	Favorite  *bool          `json:"favorite,omitempty"`
}

// StatusResponse is returned for favorite status lookups.
type StatusResponse struct {
	Title    string `json:"title"`
	Favorite bool   `json:"favorite"`
}
