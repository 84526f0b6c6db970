// Package logger builds the structured loggers used across apm.
//
// Everything logs through log/slog. [New] returns a JSON logger on stdout;
// [NewWithSentry] additionally forwards warnings and errors to Sentry when a
// DSN is configured; [NewNope] discards everything and is the default for
// library packages such as store and effect.
//
// # Context extractors
//
// A [ContextExtractor] pulls a request- or run-scoped value out of a context
// and attaches it to every record logged with that context:
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithExtractors(effect.RunIDExtractor()),
//	)
//
//	log.InfoContext(ctx, "products loaded", slog.Int("count", n))
//	// {"level":"INFO","msg":"products loaded","count":3,"effect_run":"8c1f..."}
//
// Extractors run on every call, so values that change per request or per
// effect run are always current.
package logger
