package effect

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes reported by the outcomes counter.
const (
	outcomeSuccess   = "success"
	outcomeFail      = "fail"
	outcomeDiscarded = "discarded"
	outcomeDropped   = "dropped"
)

type metrics struct {
	triggers *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apm",
			Subsystem: "effect",
			Name:      "triggers_total",
			Help:      "Number of actions that triggered an effect.",
		}, []string{"effect"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apm",
			Subsystem: "effect",
			Name:      "outcomes_total",
			Help:      "Effect triggers by outcome: success, fail, discarded or dropped.",
		}, []string{"effect", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apm",
			Subsystem: "effect",
			Name:      "run_duration_seconds",
			Help:      "Duration of effect runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"effect"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "apm",
			Subsystem: "effect",
			Name:      "in_flight",
			Help:      "Effect runs currently executing.",
		}, []string{"effect"}),
	}
	if reg != nil {
		m.triggers = register(reg, m.triggers)
		m.outcomes = register(reg, m.outcomes)
		m.duration = register(reg, m.duration)
		m.inFlight = register(reg, m.inFlight)
	}
	return m
}

// register returns the already registered collector when an identical one
// exists, so several runtimes can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
