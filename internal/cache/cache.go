// Package cache provides a best-effort Redis-backed key-value layer used to
// short-circuit repeated conversation, retrieval and generation work. The
// backing store is a soft dependency: when it is disabled, unreachable, or
// returns garbage, every read is a miss and every write a silent no-op.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache wraps a Redis client. A nil client means the cache is disabled and
// all operations degrade to always-miss.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a cache over the given Redis client. Pass a nil client to
// run with caching disabled.
func New(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// GetJSON reads and unmarshals the value under key into out. It returns
// false on absence, backend unavailability, or deserialization failure --
// the three are indistinguishable soft-misses.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get error", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Debug("cache decode error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key with the given TTL.
// Failure to write is non-fatal and only logged.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if c.client == nil {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache encode error", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Debug("cache set error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Debug("cache delete error", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// InvalidatePrefixes scans and bulk-deletes all keys under the given
// namespace prefixes.
func (c *Cache) InvalidatePrefixes(ctx context.Context, prefixes ...string) {
	if c.client == nil {
		return
	}
	var keys []string
	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Debug("cache scan error", zap.String("prefix", prefix), zap.Error(err))
			return
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("cache invalidation error", zap.Error(err))
		return
	}
	c.logger.Debug("invalidated cache namespaces", zap.Int("keys", len(keys)))
}

// InvalidateDocuments drops the document listing and retrieval namespaces.
// It must be called after any document store mutation so stale listings and
// retrieval results are not served against the new corpus.
func (c *Cache) InvalidateDocuments(ctx context.Context) {
	c.InvalidatePrefixes(ctx, DocumentsKeyPrefix, RetrieveKeyPrefix)
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
