// Package redis caches the register's reference snapshot between restarts
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/retail-pos-engine/internal/domain/reference"
)

const catalogKeyPrefix = "pos:catalog:"

// Client is the subset of *redis.Client the cache uses
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

// CatalogCache decorates a SnapshotLoader with a Redis read-through cache.
// Cache failures are logged and fall through to the source.
type CatalogCache struct {
	client Client
	source reference.SnapshotLoader
	logger *slog.Logger
	key    string
	ttl    time.Duration
}

func NewCatalogCache(logger *slog.Logger, client Client, source reference.SnapshotLoader, registerID int, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		logger: logger,
		key:    catalogKeyPrefix + strconv.Itoa(registerID),
		ttl:    ttl,
	}
}

func (c *CatalogCache) LoadSnapshot(ctx context.Context) (*reference.Snapshot, error) {
	cached, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var s reference.Snapshot
		if err := json.Unmarshal(cached, &s); err == nil {
			c.logger.Debug("Reference snapshot served from cache", "key", c.key)
			return &s, nil
		}
		c.logger.Warn("Discarding unreadable cached reference snapshot", "key", c.key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Failed to read reference snapshot from cache", "key", c.key, "error", err)
	}

	s, err := c.source.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reference snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache reference snapshot", "key", c.key, "error", err)
	}
	return s, nil
}

// Invalidate drops the cached snapshot so the next load reads the source
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate reference snapshot cache: %w", err)
	}
	return nil
}
