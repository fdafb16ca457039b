// Package cache abstracts the key-value cache used for geocoding
// results, rate-limit bookkeeping and other short-lived lookups.
//
// Backends:
//   - memory (in-process, development and tests)
//   - redis (shared, production)
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/atrium-pm/atrium/internal/config"
)

// Client defines the cache operations.
type Client interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value for key. A zero ttl means no expiration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New builds the client selected by cfg.Cache.Kind.
func New(cfg *config.Config) (Client, error) {
	switch cfg.Cache.Kind {
	case "redis":
		return NewRedis(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB), nil
	case "memory", "":
		return NewMemory(cfg.MemoryCacheTTL()), nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Cache.Kind)
	}
}
