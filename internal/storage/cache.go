package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache keeps computed dashboard payloads in Redis. Keys embed the
// campaign data version and threshold version, so a sync pass or a
// threshold change makes every stale entry unreachable; entries then age
// out via TTL. No explicit invalidation is needed.
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResponseCache creates a response cache with the given TTL.
func NewResponseCache(rdb *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for a metrics result.
func (c *ResponseCache) Key(mode, region string, days int, dataVersion, thresholdVersion uint64) string {
	if region == "" {
		region = "all"
	}
	return fmt.Sprintf("metrics:%s:%s:d%d:v%d:t%d", mode, region, days, dataVersion, thresholdVersion)
}

// Get unmarshals a cached payload into dest. The second return is false on
// a cache miss. Redis being down is reported as a miss with the error.
func (c *ResponseCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

// Set stores a payload under the key with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
