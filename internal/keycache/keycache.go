// Package keycache is a read-through redis cache for API key identity
// lookups. Only the immutable identity fields (record id, owner) are
// cached; usage counters always come from the store so metering stays
// authoritative there.
package keycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/logger"
)

const (
	keyPrefix  = "apikey:"
	defaultTTL = 5 * time.Minute
)

// Entry is the cached identity of an API key.
type Entry struct {
	ID     uuid.UUID `json:"id"`
	UserID string    `json:"user_id"`
}

// Cache wraps a redis client. A nil *Cache (or a Cache built from a nil
// client) is valid and disables caching, so callers never branch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache over the given redis client. Pass nil to disable.
func New(client *redis.Client) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: defaultTTL}
}

// Get returns the cached identity for a secret, if present. Cache errors
// are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, secret string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}

	raw, err := c.client.Get(ctx, keyPrefix+secret).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("key cache read failed", zap.Error(err))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.Warn("key cache entry corrupt, dropping", zap.Error(err))
		c.Invalidate(ctx, secret)
		return Entry{}, false
	}
	return entry, true
}

// Set stores the identity for a secret with the cache TTL.
func (c *Cache) Set(ctx context.Context, secret string, entry Entry) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+secret, raw, c.ttl).Err(); err != nil {
		logger.Warn("key cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached identity for a secret. Called when the
// backing record turns out to be gone or unreadable.
func (c *Cache) Invalidate(ctx context.Context, secret string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+secret).Err(); err != nil {
		logger.Warn("key cache invalidation failed", zap.Error(err))
	}
}
