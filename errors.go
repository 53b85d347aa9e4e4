package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrUnknownBackend is returned for an unsupported STORAGE_BACKEND value.
var ErrUnknownBackend = errors.New("unknown storage backend")

// APIError represents a structured error response.
type APIError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{Error: msg, Code: status})
}
