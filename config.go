package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendDynamo = "dynamodb"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

type Config struct {
	ServerPort       string
	StorageBackend   string
	SQLitePath       string
	DynamoEndpoint   string
	DynamoTableName  string
	AWSRegion        string
	StorageKeyPrefix string
	MaxPersisted     int
	SessionTTL       time.Duration
	JWTSecret        string
	JWTIssuer        string
	CORSAllowOrigin  string
	LogLevel         slog.Level
	DevBypassAuth    bool
}

func LoadConfig() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	backend := strings.ToLower(envOrDefault("STORAGE_BACKEND", BackendSQLite))
	switch backend {
	case BackendDynamo, BackendSQLite, BackendNone:
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}

	ttl, err := time.ParseDuration(envOrDefault("SESSION_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	maxPersisted, err := strconv.Atoi(envOrDefault("PERSIST_MAX_FAVORITES", "0"))
	if err != nil || maxPersisted < 0 {
		return Config{}, fmt.Errorf("invalid PERSIST_MAX_FAVORITES: %q", os.Getenv("PERSIST_MAX_FAVORITES"))
	}

	cfg := Config{
		ServerPort:       envOrDefault("SERVER_PORT", "8080"),
		StorageBackend:   backend,
		SQLitePath:       envOrDefault("SQLITE_PATH", "favorites.db"),
		DynamoEndpoint:   os.Getenv("DYNAMODB_ENDPOINT"),
		DynamoTableName:  envOrDefault("DYNAMODB_TABLE_NAME", "doc-favorites"),
		AWSRegion:        envOrDefault("AWS_REGION", "us-east-1"),
		StorageKeyPrefix: envOrDefault("STORAGE_KEY_PREFIX", "favorites:"),
		MaxPersisted:     maxPersisted,
		SessionTTL:       ttl,
		JWTSecret:        secret,
		JWTIssuer:        os.Getenv("JWT_ISSUER"),
		CORSAllowOrigin:  envOrDefault("CORS_ALLOW_ORIGIN", "*"),
		LogLevel:         parseLogLevel(os.Getenv("LOG_LEVEL")),
		DevBypassAuth:    strings.EqualFold(os.Getenv("DEV_BYPASS_AUTH"), "true"),
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
