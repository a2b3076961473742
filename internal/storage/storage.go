// Package storage provides durable string key-value stores for session state.
package storage

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"taskctl/internal/config"
)

// Fixed keys of the session record.
const (
	KeyToken    = "token"
	KeyUsername = "username"
	KeyUserID   = "userId"
)

// SessionKeys lists every key of the session record.
var SessionKeys = []string{KeyToken, KeyUsername, KeyUserID}

// Store is a durable string key-value store.
// A missing key is reported with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = DriverFile
	}
	if logger != nil {
		logger.WithField("driver", driver).Debug("opening session store")
	}

	switch driver {
	case DriverFile:
		if err := cfg.EnsureDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		return NewFileStore(cfg.SessionFilePath()), nil
	case DriverSQLite:
		return NewSQLiteStore(cfg.SessionDBPath())
	case DriverRedis:
		return NewRedisStoreFromURL(ctx, cfg.Storage.RedisURL, cfg.Storage.RedisPrefix)
	case DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
}
