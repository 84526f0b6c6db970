// Package health serves the liveness and readiness probes of the apm server.
//
// Readiness aggregates named [CheckFunc]s: the store, the effect runtime and,
// when configured, PostgreSQL and Redis.
//
//	checker := health.NewChecker(health.Checks{
//	    "store":   st.Healthcheck(),
//	    "effects": rt.Healthcheck(),
//	    "redis":   redis.Healthcheck(client),
//	}, health.WithLogger(log), health.WithRegisterer(reg))
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(checker))
//
// Both handlers answer plain text unless the client asks for JSON with
// ?format=json or an Accept: application/json header.
package health
