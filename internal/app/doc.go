// Package app is the composition root of the apm server.
//
// It picks the product backend (memory or PostgreSQL), wraps it in the list
// cache (memory or Redis), builds the store with the catalog and identity
// features, and registers their effects on a runtime:
//
//	a, err := app.New(ctx, cfg, app.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if err := a.Start(ctx); err != nil {
//	    return err
//	}
//	defer a.Shutdown(context.Background())
//
// All metrics go to the App's own Prometheus registry.
package app
