// Package cache provides a small generic cache with a process-local LRU
// backend ([Memory]) and a Redis backend ([Redis]), plus a [Loader] that
// fills either one on misses without stampeding the source.
//
// Expiry is expressed per Set call: a positive ttl expires the entry, zero
// uses the backend default and a negative ttl keeps the entry until it is
// deleted or evicted.
//
//	products := cache.NewMemory[[]catalog.Product](cache.WithDefaultTTL(time.Minute))
//	loader := cache.NewLoader[[]catalog.Product](products, 0)
//
//	list, err := loader.GetOrSet(ctx, "all", api.List)
//
// Redis values go through a [Codec], JSON unless [WithCodec] says otherwise:
//
//	rc, err := cache.NewRedis[[]catalog.Product](client, "apm:products")
//
// Misses are reported as [ErrNotFound]; operations on a closed [Memory] return
// [ErrClosed].
package cache
