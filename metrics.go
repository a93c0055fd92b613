package dyndns

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	passNoop    = "noop"
	passUpdated = "updated"
	passPartial = "partial"
	passFailed  = "failed"
)

// Metrics records the outcome of reconciliation passes.
// A single pass exits too quickly to be scraped, so the collected values are
// meant to be sent to a Prometheus Pushgateway with Push.
type Metrics struct {
	registry    *prometheus.Registry
	passes      *prometheus.CounterVec
	updates     *prometheus.CounterVec
	lastPass    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dyndns",
			Name:      "passes_total",
			Help:      "Reconciliation passes by result.",
		}, []string{"result"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dyndns",
			Name:      "record_updates_total",
			Help:      "DNS record updates by address family and result.",
		}, []string{"family", "result"}),
		lastPass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dyndns",
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time of the last finished pass.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dyndns",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last pass that left every record up to date.",
		}),
	}
	m.registry.MustRegister(m.passes, m.updates, m.lastPass, m.lastSuccess)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(res Result, err error) {
	if m == nil {
		return
	}
	now := float64(time.Now().Unix())
	m.lastPass.Set(now)
	failed := 0
	for _, o := range res.Outcomes {
		result := "success"
		if o.Err != nil {
			result = "failure"
			failed++
		}
		m.updates.WithLabelValues(string(o.Family), result).Inc()
	}
	switch {
	case err != nil:
		m.passes.WithLabelValues(passFailed).Inc()
		return
	case failed > 0:
		// the records still hold a stale address, so this is not a success
		m.passes.WithLabelValues(passPartial).Inc()
		return
	case len(res.Outcomes) == 0:
		m.passes.WithLabelValues(passNoop).Inc()
	default:
		m.passes.WithLabelValues(passUpdated).Inc()
	}
	m.lastSuccess.Set(now)
}

// Push sends the current values to the Pushgateway at url under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("error pushing metrics to %s: %w", url, err)
	}
	return nil
}
