// Package redis opens the go-redis client that backs the shared product list
// cache, and exposes its health check and shutdown hook.
//
//	client, err := redis.Open(ctx, cfg.Redis, log)
//	if err != nil {
//	    return err
//	}
//	products, err := cache.NewRedis[[]catalog.Product](client, "apm:products")
package redis
