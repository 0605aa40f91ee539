package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"checkin/internal/student"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

const statsKey = "checkin:stats"

// StatsCache keeps the last dashboard summary in redis so polling kiosks do
// not reload the whole roster. Writers invalidate it after every change.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a cache; a nil client disables it.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached stats and whether they were present.
func (c *StatsCache) Get(ctx context.Context) (student.Stats, bool, error) {
	if c == nil || c.client == nil {
		return student.Stats{}, false, nil
	}
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return student.Stats{}, false, nil
	}
	if err != nil {
		return student.Stats{}, false, err
	}
	var st student.Stats
	if err := json.Unmarshal(raw, &st); err != nil {
		return student.Stats{}, false, err
	}
	return st, true, nil
}

// Set stores stats for the cache TTL.
func (c *StatsCache) Set(ctx context.Context, st student.Stats) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey, raw, c.ttl).Err()
}

// Invalidate drops the cached stats.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, statsKey).Err()
}

// Notify invalidates the cache after any committed change.
func (c *StatsCache) Notify(ctx context.Context, _ student.Change) error {
	return c.Invalidate(ctx)
}
