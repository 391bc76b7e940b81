package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zykor/platform/pkg/common/logger"
)

// ResultCache keeps the latest processing result per raw payload in Redis
// so repeat status queries do not touch Postgres.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func cacheKey(rawDataID uint) string {
	return fmt.Sprintf("processor:result:%d", rawDataID)
}

// Put stores a result. Cache failures are logged and swallowed; the cache
// is advisory.
func (c *ResultCache) Put(ctx context.Context, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(result.RawDataID), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to cache processing result")
	}
}

// Get returns the cached result for a payload, or false on a miss.
func (c *ResultCache) Get(ctx context.Context, rawDataID uint) (Result, bool) {
	data, err := c.client.Get(ctx, cacheKey(rawDataID)).Bytes()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, false
	}
	return result, true
}
