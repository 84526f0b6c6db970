package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apm/pkg/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("adds extracted attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithExtractors(logger.StringExtractor(ctxKey{}, "run"), nil),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "r-1")
		log.InfoContext(ctx, "loaded", slog.Int("count", 3))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.Equal(t, "loaded", rec["msg"])
		require.Equal(t, "r-1", rec["run"])
		require.InDelta(t, 3, rec["count"], 0)
	})

	t.Run("skips empty context values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithExtractors(logger.StringExtractor(ctxKey{}, "run")),
		)

		log.InfoContext(context.Background(), "idle")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.NotContains(t, rec, "run")
	})

	t.Run("respects level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
		log.Info("hidden")
		require.Zero(t, buf.Len())

		log.Warn("shown")
		require.NotZero(t, buf.Len())
	})
}

func TestNewWithSentry_NoDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.SentryConfig{}, logger.WithOutput(&buf), logger.WithText())
	log.Warn("local only")

	require.Contains(t, buf.String(), "local only")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestFlushSentry(t *testing.T) {
	t.Parallel()

	t.Run("returns without a client", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		require.NoError(t, logger.FlushSentry(ctx))
	})

	t.Run("expired deadline skips flushing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		require.NoError(t, logger.FlushSentry(ctx))
	})
}
