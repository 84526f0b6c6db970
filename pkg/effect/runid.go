package effect

import (
	"context"

	"github.com/dmitrymomot/apm/pkg/logger"
)

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the id of the effect run ctx belongs to.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// RunIDExtractor adds the effect run id to log records written with a run
// context. Pass it to logger.WithExtractors.
func RunIDExtractor() logger.ContextExtractor {
	return logger.StringExtractor(runIDKey{}, "effect_run_id")
}
