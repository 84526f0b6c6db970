package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Cache is a key-value store with per-entry expiry.
//
// The ttl passed to Set follows one rule for every backend: a positive value
// expires the entry after that long, zero applies the backend default and a
// negative value keeps the entry until it is deleted or evicted.
type Cache[V any] interface {
	// Get returns ErrNotFound on a miss or an expired entry.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry owned by this cache.
	Clear(ctx context.Context) error
	Close() error
}

// Codec turns values into bytes for backends that store raw payloads.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// JSONCodec is the default Codec.
type JSONCodec[V any] struct{}

// Encode implements Codec.
func (JSONCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrDecode, err)
	}
	return v, nil
}
