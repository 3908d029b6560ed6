package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is an optional shared store so multiple replicas reuse each other's
// upstream fetches. It holds the same short-TTL entries as Memory and is
// never load-bearing: any Redis error degrades to a cache miss.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(redisURL, password string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.rdb.Get(ctx, "defiboard:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	r.rdb.Set(ctx, "defiboard:"+key, val, ttl) //nolint:errcheck
}
