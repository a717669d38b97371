package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under "<prefix>:cache:<key>".
// A disabled client turns every call into a miss / no-op.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value; a missing key is reported as (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Report TTLs
const (
	TTLDaily   = 24 * time.Hour     // 당일 리포트 (늦게 정정될 수 있음)
	TTLHistory = 7 * 24 * time.Hour // 과거 리포트 (변경 없음)

	// recentWindow is how long after its date a report may still be corrected
	recentWindow = 48 * time.Hour
)

// ReportKey is the cache key of one market's daily report
func ReportKey(market string, date time.Time) string {
	return fmt.Sprintf("report:%s:%s", market, date.Format("2006-01-02"))
}

// ReportTTL returns how long the report of date may be cached at now
func ReportTTL(date, now time.Time) time.Duration {
	if now.Sub(date) < recentWindow {
		return TTLDaily
	}
	return TTLHistory
}
