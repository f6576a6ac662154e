// Package cache provides a TTL-bounded cache-aside store backed by Redis.
//
// Values are encoded with CBOR for compact storage. The cache is strictly
// advisory: any Redis failure falls through to the underlying computation,
// and every cached view must be rebuildable from scratch.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by Get/Put when no Redis client is configured.
var ErrDisabled = errors.New("cache disabled")

// Store is a cache-aside helper over a Redis client.
// A nil client disables caching; all reads become misses and writes no-ops.
type Store struct {
	client *redis.Client
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a cache store. client may be nil to disable caching entirely
// (every GetOrSet call then runs its fetch function directly).
func New(client *redis.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		logger: logger,
	}
}

// Enabled reports whether a Redis client is configured.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Get fetches and decodes a cached value into dest.
// Returns (false, nil) on a cache miss and (false, ErrDisabled) when caching is off.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	if s.client == nil {
		return false, ErrDisabled
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := cbor.Unmarshal(data, dest); err != nil {
		// A decode failure means a stale or corrupt entry; treat as a miss.
		s.logger.Warn("cache entry undecodable, treating as miss", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Put encodes value with CBOR and stores it under key with the given TTL.
func (s *Store) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.client == nil {
		return ErrDisabled
	}

	data, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}

// GetOrSet implements the cache-aside read path: return the cached value if
// present, otherwise run fetch, store its result, and return it. Concurrent
// misses for the same key collapse to a single fetch via singleflight.
//
// Redis errors are logged and absorbed; fetch is the source of truth.
// The fetched (or cached) value is decoded into dest, which must be a pointer.
func (s *Store) GetOrSet(ctx context.Context, key string, ttl time.Duration, dest any, fetch func(ctx context.Context) (any, error)) error {
	if s.client != nil {
		hit, err := s.Get(ctx, key, dest)
		if err != nil && !errors.Is(err, ErrDisabled) {
			s.logger.Warn("cache read failed, falling back to fetch", "key", key, "error", err)
		}
		if hit {
			return nil
		}
	}

	// Collapse concurrent recomputation for the same key. Each flight
	// returns the CBOR encoding so every waiter can decode into its own dest.
	data, err, _ := s.group.Do(key, func() (any, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		encoded, err := cbor.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("cache encode %s: %w", key, err)
		}

		if s.client != nil {
			if err := s.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
				s.logger.Warn("cache populate failed", "key", key, "error", err)
			}
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}

	return cbor.Unmarshal(data.([]byte), dest)
}

// InvalidatePattern deletes all keys matching a glob pattern (e.g. "leaderboard:*").
// Returns the number of keys deleted. Uses SCAN to avoid blocking Redis.
func (s *Store) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if s.client == nil {
		return 0, nil
	}

	var deleted int
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			n, err := s.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("cache invalidate %s: %w", pattern, err)
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if len(batch) > 0 {
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("cache invalidate %s: %w", pattern, err)
		}
		deleted += int(n)
	}

	if deleted > 0 {
		s.logger.Debug("cache invalidated", "pattern", pattern, "deleted", deleted)
	}
	return deleted, nil
}
