package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache stored in Redis under "<namespace>:<key>".
// The client lifecycle belongs to the caller (see pkg/redis).
type Redis[V any] struct {
	client     redis.UniversalClient
	namespace  string
	codec      Codec[V]
	defaultTTL time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption[V any] func(*Redis[V])

// WithCodec replaces the JSON codec.
func WithCodec[V any](c Codec[V]) RedisOption[V] {
	return func(r *Redis[V]) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithRedisDefaultTTL sets the expiry used when Set receives a zero ttl.
// Default: 1 hour.
func WithRedisDefaultTTL[V any](d time.Duration) RedisOption[V] {
	return func(r *Redis[V]) { r.defaultTTL = d }
}

// NewRedis creates a Redis cache. The namespace is mandatory: Clear only
// removes keys inside it.
func NewRedis[V any](client redis.UniversalClient, namespace string, opts ...RedisOption[V]) (*Redis[V], error) {
	if namespace == "" {
		return nil, ErrNoNamespace
	}
	r := &Redis[V]{
		client:     client,
		namespace:  namespace,
		codec:      JSONCodec[V]{},
		defaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Get implements Cache.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return zero, ErrNotFound
	case err != nil:
		return zero, err
	}
	return r.codec.Decode(data)
}

// Set implements Cache.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	// Redis reads 0 as "no expiry".
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Delete implements Cache.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear removes the namespace with SCAN + DEL batches.
func (r *Redis[V]) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.namespace+":*", 200).Iterator()
	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close is a no-op; the client is shared.
func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string { return r.namespace + ":" + k }

var _ Cache[any] = (*Redis[any])(nil)
