package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	storage, err := NewStorage(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	if storage == nil {
		logger.Warn("no storage backend configured; favorites are kept in memory only")
	}

	sessions := NewSessions(storage, cfg.StorageKeyPrefix, cfg.SessionTTL, logger)
	sessions.UseFilter(KeepNewest(cfg.MaxPersisted))
	handler := NewFavoritesHandler(sessions, logger)
	router := NewRouter(handler, cfg, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.ServerPort, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	if c, ok := storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("closing storage", "error", err)
		}
	}

	logger.Info("server stopped")
}

// NewStorage builds the storage backend named in cfg. The "none" backend
// returns a nil storage, which keeps favorites in memory only.
func NewStorage(ctx context.Context, cfg Config) (KeyValueStorage, error) {
	switch cfg.StorageBackend {
	case BackendDynamo:
		s, err := NewDynamoStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StorageBackend)
	}
}
