package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Option configures a logger built by New.
type Option func(*options)

type options struct {
	out        io.Writer
	extractors []ContextExtractor
	level      slog.Level
	text       bool
}

func defaultOptions() *options {
	return &options{
		out:   os.Stdout,
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum level.
// Default: slog.LevelInfo.
func WithLevel(l slog.Level) Option {
	return func(o *options) {
		o.level = l
	}
}

// WithOutput sets the destination writer.
// Default: os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithText switches the output format from JSON to logfmt-style text.
func WithText() Option {
	return func(o *options) {
		o.text = true
	}
}

// WithExtractors adds context extractors applied on every log call.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// New creates a structured logger. JSON to stdout at info level by default.
func New(opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return slog.New(NewLogHandlerDecorator(o.handler(), o.extractors...))
}

func (o *options) handler() slog.Handler {
	ho := &slog.HandlerOptions{Level: o.level}
	if o.text {
		return slog.NewTextHandler(o.out, ho)
	}
	return slog.NewJSONHandler(o.out, ho)
}

// NewNope creates a logger that discards all output.
// Library packages use it as their default.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
