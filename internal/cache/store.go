// Package cache stores raw API response bodies with a TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kamusis/cinerec/internal/config"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/metrics"
)

// ErrNotFound is returned by Get on a miss or an expired entry.
var ErrNotFound = errors.New("cache: not found")

// Store is a byte-oriented key/value cache.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl; ttl <= 0 means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New builds the Store selected by cfg.Backend. A remote or on-disk backend
// that cannot be opened degrades to an in-memory store with a warning.
// It returns a nil Store for backend "none".
func New(ctx context.Context, cfg config.CacheConfig, redisPassword string) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.Capacity, cfg.TTL), nil
	case "none":
		return nil, nil
	case "redis":
		s, err := NewRedisStore(ctx, RedisOptions{
			Addr:       cfg.RedisAddr,
			Password:   redisPassword,
			DB:         cfg.RedisDB,
			DefaultTTL: cfg.TTL,
		})
		if err != nil {
			logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis cache unavailable, using memory")
			return NewMemoryStore(cfg.Capacity, cfg.TTL), nil
		}
		return s, nil
	case "badger":
		s, err := NewBadgerStore(cfg.BadgerDir, cfg.TTL)
		if err != nil {
			logging.Warn().Err(err).Str("dir", cfg.BadgerDir).Msg("badger cache unavailable, using memory")
			return NewMemoryStore(cfg.Capacity, cfg.TTL), nil
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// recordLookup counts a Get outcome.
func recordLookup(backend string, err error) {
	result := "hit"
	if err != nil {
		result = "miss"
	}
	metrics.CacheRequestsTotal.WithLabelValues(backend, result).Inc()
}
