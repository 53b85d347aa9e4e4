package main

import (
	"log/slog"
	"net/http"
)

// NewRouter registers all routes and wraps them with the middleware chain.
func NewRouter(h *FavoritesHandler, cfg Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Auth wraps each route rather than the mux so that readerId is
	// resolvable for the dev bypass.
	auth := JWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.DevBypassAuth)
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	route("GET /api/v1/readers/{readerId}/favorites", h.List)
	route("POST /api/v1/readers/{readerId}/favorites/toggle", h.Toggle)
	route("GET /api/v1/readers/{readerId}/favorites/status", h.Status)
	route("DELETE /api/v1/readers/{readerId}/favorites", h.Clear)

	// Middleware chain: Recovery → CORS → RequestLogging → mux (JWTAuth per route)
	var handler http.Handler = mux
	handler = RequestLogging(logger)(handler)
	handler = CORS(cfg.CORSAllowOrigin)(handler)
	handler = Recovery(logger)(handler)

	return handler
}
