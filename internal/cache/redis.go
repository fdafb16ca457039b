package cache

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type redisClient struct {
	c *rdb.Client
}

// NewRedis returns a client backed by a shared Redis instance.
func NewRedis(addr, password string, db int) Client {
	return &redisClient{c: rdb.NewClient(&rdb.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *redisClient) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

func (r *redisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.c.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *redisClient) Close() error { return r.c.Close() }

// Raw exposes the underlying go-redis client for callers that need
// atomic commands the Client interface does not cover (rate limiting).
func (r *redisClient) Raw() *rdb.Client { return r.c }

// Redis returns the underlying go-redis client when c is Redis-backed.
func Redis(c Client) (*rdb.Client, bool) {
	r, ok := c.(*redisClient)
	if !ok {
		return nil, false
	}
	return r.c, true
}

var _ Client = (*redisClient)(nil)
