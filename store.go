package main

import (
	"context"
	"errors"
)

var (
	// ErrStorageClosed is returned by storage backends used after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrCorruptState is returned when a persisted record cannot be decoded.
	ErrCorruptState = errors.New("persisted favorites record is corrupt")
)

// KeyValueStorage is the getItem/setItem contract the persistence adapter
// mirrors state into.
type KeyValueStorage interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}
