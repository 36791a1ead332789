package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"healthchain/pkg/domain"
)

// GrantCache accelerates the unrestricted isGranted read path. The guard and
// all mutations read the store directly, so a stale cache entry can never
// widen write access; mutations invalidate the pair eagerly anyway.
type GrantCache interface {
	Lookup(ctx context.Context, patient, provider domain.Identity) (active bool, ok bool)
	Store(ctx context.Context, patient, provider domain.Identity, active bool)
	Invalidate(ctx context.Context, patient, provider domain.Identity)
}

const (
	grantKeyPrefix = "acl:grant:"
	grantCacheTTL  = 5 * time.Minute
)

// RedisGrantCache is the Redis-backed GrantCache. Failures degrade to cache
// misses; the store remains authoritative.
type RedisGrantCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisGrantCache(client *redis.Client, logger *slog.Logger) *RedisGrantCache {
	return &RedisGrantCache{client: client, logger: logger}
}

// grantKey encodes the pair unambiguously: identities may contain ':', so the
// patient's byte length prefixes the key and fixes where the provider starts.
func grantKey(patient, provider domain.Identity) string {
	return fmt.Sprintf("%s%d:%s:%s", grantKeyPrefix, len(patient), patient, provider)
}

func (c *RedisGrantCache) Lookup(ctx context.Context, patient, provider domain.Identity) (bool, bool) {
	val, err := c.client.Get(ctx, grantKey(patient, provider)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "grant cache lookup failed", "error", err)
		return false, false
	}
	return val == "1", true
}

func (c *RedisGrantCache) Store(ctx context.Context, patient, provider domain.Identity, active bool) {
	val := "0"
	if active {
		val = "1"
	}
	if err := c.client.Set(ctx, grantKey(patient, provider), val, grantCacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "grant cache store failed", "error", err)
	}
}

func (c *RedisGrantCache) Invalidate(ctx context.Context, patient, provider domain.Identity) {
	if err := c.client.Del(ctx, grantKey(patient, provider)).Err(); err != nil {
		c.logger.WarnContext(ctx, "grant cache invalidation failed", "error", err)
	}
}
