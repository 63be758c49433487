package scanguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gatepass:scan:"

// Redis shares the debounce window across server instances.  It relies on
// SET NX PX, so the first writer in a window wins.
type Redis struct {
	client *redis.Client
	window time.Duration
	prefix string
}

func NewRedis(client *redis.Client, window time.Duration) *Redis {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, window: window, prefix: defaultPrefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().UnixMilli(), r.window).Result()
	if err != nil {
		return false, fmt.Errorf("scanguard redis: %w", err)
	}
	return ok, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("scanguard redis: %w", err)
	}
	return nil
}

// Dial parses url, connects and pings.  An empty url returns nil.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
