package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "recho"

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Redis stores report JSON under a TTL. A nil *Redis always misses and
// silently drops writes.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// Dial parses a redis:// URL and verifies connectivity.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, ttl), nil
}

func New(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Key builds recho:report:<tab>:<client>:<from>:<to>.
func Key(tab, clientID, from, to string) string {
	return strings.Join([]string{keyNamespace, "report", tab, clientID, from, to}, ":")
}

// Get decodes the value at key into dst.
func (c *Redis) Get(ctx context.Context, key string, dst any) error {
	if c == nil || c.rdb == nil {
		return ErrMiss
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

func (c *Redis) Set(ctx context.Context, key string, v any) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Redis) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
