package health

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/apm/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports a dependency as unhealthy by returning an error.
// store.Store, effect.Runtime, db and redis all expose one.
type CheckFunc func(ctx context.Context) error

// Checks maps a check name to its function.
type Checks map[string]CheckFunc

// Report is the aggregated result of a readiness run.
type Report struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool { return r.Status == StatusHealthy }

// Check is the result of a single check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Took   string `json:"took"`
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds a whole readiness run. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for failing checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegisterer exports the last result of each check as apm_health_check_up.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *Checker) {
		c.registerer = r
	}
}

// Checker runs a fixed set of checks concurrently.
type Checker struct {
	checks     Checks
	names      []string
	timeout    time.Duration
	logger     *slog.Logger
	registerer prometheus.Registerer
	up         *prometheus.GaugeVec
}

// NewChecker creates a Checker over checks. Nil functions are ignored.
func NewChecker(checks Checks, opts ...Option) *Checker {
	c := &Checker{
		checks:  make(Checks, len(checks)),
		timeout: 5 * time.Second,
		logger:  logger.NewNope(),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "apm",
			Subsystem: "health",
			Name:      "check_up",
			Help:      "1 if the last run of the check passed, 0 otherwise.",
		}, []string{"check"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	for name, fn := range checks {
		if fn != nil {
			c.checks[name] = fn
		}
	}
	c.names = slices.Sorted(maps.Keys(c.checks))

	if c.registerer != nil {
		if err := c.registerer.Register(c.up); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
					c.up = existing
				}
			}
		}
	}
	return c
}

// Run executes every check and aggregates the results.
// A check that outlives the timeout is reported with ErrCheckTimeout.
func (c *Checker) Run(ctx context.Context) *Report {
	if len(c.names) == 0 {
		return &Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make([]Check, len(c.names))
	var g errgroup.Group
	for i, name := range c.names {
		g.Go(func() error {
			results[i] = c.runOne(ctx, name, c.checks[name])
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Status: StatusHealthy, Checks: make(map[string]Check, len(c.names))}
	for i, name := range c.names {
		report.Checks[name] = results[i]
		if results[i].Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

func (c *Checker) runOne(ctx context.Context, name string, fn CheckFunc) Check {
	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	res := Check{Status: StatusHealthy, Took: time.Since(start).Round(time.Microsecond).String()}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Error = err.Error()
		c.up.WithLabelValues(name).Set(0)
		c.logger.WarnContext(ctx, "health check failed",
			slog.String("check", name),
			slog.Any("error", err),
		)
		return res
	}
	c.up.WithLabelValues(name).Set(1)
	return res
}
