// Package cache stores computed dashboards so repeated reads skip the
// aggregation. Entries are keyed by a per-user version plus a global
// generation. Bumping either one orphans the entries written under it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kleberson-Figueiredo/debt-control/internal/models"
)

// DashboardKey identifies one dashboard query of a user.
type DashboardKey struct {
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Offset    int
	Limit     int

	// Version is the cache version Get observed. Set writes under it, so
	// totals computed before a concurrent invalidation land on a key no
	// later Get reads.
	Version string
}

// DashboardCache caches dashboard totals per user and query.
type DashboardCache interface {
	// Get returns the cached totals and whether they were found. It records
	// the version it read in key.Version.
	Get(ctx context.Context, key *DashboardKey) (*models.DashboardTotals, bool, error)
	// Set stores totals under key.Version. Keys that Get never pinned are
	// ignored.
	Set(ctx context.Context, key DashboardKey, totals *models.DashboardTotals) error
	// Invalidate drops every cached dashboard of the user.
	Invalidate(ctx context.Context, userID string) error
	// InvalidateAll drops the cached dashboards of every user.
	InvalidateAll(ctx context.Context) error
}

// Nop is a DashboardCache that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, *DashboardKey) (*models.DashboardTotals, bool, error) {
	return nil, false, nil
}
func (Nop) Set(context.Context, DashboardKey, *models.DashboardTotals) error { return nil }
func (Nop) Invalidate(context.Context, string) error                         { return nil }
func (Nop) InvalidateAll(context.Context) error                              { return nil }

// RedisCache implements DashboardCache on Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the Redis server at url (redis://host:port/db) and
// checks it answers.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		// Fallback to a plain host:port address
		opt = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

const generationKey = "dashboard:gen"

func versionKey(userID string) string {
	return "dashboard:ver:" + userID
}

func entryKey(key DashboardKey) string {
	return fmt.Sprintf("dashboard:%s:%s:%s:%s:%d:%d", key.UserID, key.Version,
		models.FormatDate(key.StartDate), models.FormatDate(key.EndDate), key.Offset, key.Limit)
}

// version reads the global generation and the user's version in one round
// trip and joins them as "generation.version".
func (c *RedisCache) version(ctx context.Context, userID string) (string, error) {
	vals, err := c.client.MGet(ctx, generationKey, versionKey(userID)).Result()
	if err != nil {
		return "", err
	}
	parts := [2]string{"0", "0"}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}
	return parts[0] + "." + parts[1], nil
}

// Get implements DashboardCache.
func (c *RedisCache) Get(ctx context.Context, key *DashboardKey) (*models.DashboardTotals, bool, error) {
	version, err := c.version(ctx, key.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache version: %w", err)
	}
	key.Version = version

	data, err := c.client.Get(ctx, entryKey(*key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached dashboard: %w", err)
	}

	var totals models.DashboardTotals
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached dashboard: %w", err)
	}
	return &totals, true, nil
}

// Set implements DashboardCache.
func (c *RedisCache) Set(ctx context.Context, key DashboardKey, totals *models.DashboardTotals) error {
	if key.Version == "" {
		return nil
	}

	data, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache dashboard: %w", err)
	}
	return nil
}

// Invalidate implements DashboardCache. Old entries are left to expire.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboards: %w", err)
	}
	return nil
}

// InvalidateAll implements DashboardCache.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboards: %w", err)
	}
	return nil
}
