package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/karahan-cpu/martek-marina/internal/core/port"
)

const defaultGrantPrefix = "marina:grants"

// GrantCacheConfig configures the Redis-backed grant cache.
type GrantCacheConfig struct {
	KeyPrefix string
	// TTL bounds the lifetime of a user's grant set. Zero keeps grants until
	// explicitly revoked.
	TTL time.Duration
}

// GrantCache stores verified (user, pedestal) grants in Redis sets so grants
// survive process restarts and are visible across instances.
type GrantCache struct {
	client *red.Client
	cfg    GrantCacheConfig
}

// NewGrantCache constructs a grant cache using the provided Redis client.
func NewGrantCache(client *red.Client, cfg GrantCacheConfig) *GrantCache {
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = defaultGrantPrefix
	}
	return &GrantCache{client: client, cfg: cfg}
}

// Grant adds the pedestal to the user's grant set and refreshes the TTL.
func (c *GrantCache) Grant(ctx context.Context, userID, pedestalID string) error {
	key := c.key(userID)

	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, pedestalID)
	if c.cfg.TTL > 0 {
		pipe.Expire(ctx, key, c.cfg.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis grant: %w", err)
	}
	return nil
}

// HasAccess reports whether the user holds a grant for the pedestal.
func (c *GrantCache) HasAccess(ctx context.Context, userID, pedestalID string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.key(userID), pedestalID).Result()
	if err != nil {
		return false, fmt.Errorf("redis has access: %w", err)
	}
	return ok, nil
}

// Revoke removes the pedestal from the user's grant set.
func (c *GrantCache) Revoke(ctx context.Context, userID, pedestalID string) error {
	if err := c.client.SRem(ctx, c.key(userID), pedestalID).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

func (c *GrantCache) key(userID string) string {
	return fmt.Sprintf("%s:%s", c.cfg.KeyPrefix, userID)
}

var _ port.GrantCache = (*GrantCache)(nil)
