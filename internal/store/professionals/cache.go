package professionals

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"estate-workers/internal/common/logger"
	"estate-workers/internal/common/metrics"
	"estate-workers/internal/ranking"
)

const countKeyPrefix = "professionals:count:"

// CachedStore serves Count from Redis when possible and delegates everything
// else to the wrapped store. Redis failures degrade to an uncached count.
type CachedStore struct {
	ranking.Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(store ranking.Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedStore {
	return &CachedStore{
		Store:  store,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "professional-count-cache"}),
	}
}

func (c *CachedStore) Count(ctx context.Context, filter ranking.Filter) (int, error) {
	key := countCacheKey(filter)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(val); convErr == nil {
			metrics.CountCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
			return n, nil
		}
		metrics.CountCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		c.logger.Warn("discarding malformed cached count", map[string]interface{}{
			"key":   key,
			"value": val,
		})
	case errors.Is(err, redis.Nil):
		metrics.CountCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.CountCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("count cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	n, err := c.Store.Count(ctx, filter)
	if err != nil {
		return 0, err
	}

	if err := c.redis.Set(ctx, key, n, c.ttl).Err(); err != nil {
		c.logger.Warn("count cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return n, nil
}

func countCacheKey(f ranking.Filter) string {
	return countKeyPrefix + strings.Join(roleStrings(f.Roles), ",") + ":" + strings.ToLower(f.Search)
}
