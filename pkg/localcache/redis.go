package localcache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis stores keys in a Redis database under a namespace prefix, so several
// shoppers can share one instance.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, namespace string) *Redis {
	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
