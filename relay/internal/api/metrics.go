package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for hostpager_relay_alerts_total.
const (
	outcomeIgnored = "ignored"
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomeError   = "error"
)

// metrics holds the relay's Prometheus collectors.
type metrics struct {
	alerts   *prometheus.CounterVec
	latency  prometheus.Histogram
	exporter http.Handler
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostpager",
			Subsystem: "relay",
			Name:      "alerts_total",
			Help:      "Webhook alerts received, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hostpager",
			Subsystem: "relay",
			Name:      "pagerduty_request_duration_seconds",
			Help:      "Latency of PagerDuty enqueue requests that returned a response.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.alerts, m.latency)

	// Pre-create every outcome so the series exist at zero.
	for _, o := range []string{outcomeIgnored, outcomeSuccess, outcomeFailed, outcomeError} {
		m.alerts.WithLabelValues(o)
	}

	m.exporter = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

func (m *metrics) count(outcome string) {
	m.alerts.WithLabelValues(outcome).Inc()
}

func (m *metrics) observe(d time.Duration) {
	m.latency.Observe(d.Seconds())
}
