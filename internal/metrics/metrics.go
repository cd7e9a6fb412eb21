// Package metrics exposes Prometheus collectors for authentication outcomes and HTTP traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements auth.LoginRecorder and auth.SessionRecorder.
type Collector struct {
	registry *prometheus.Registry

	loginAttempts    *prometheus.CounterVec
	sessionRejected  *prometheus.CounterVec
	httpInFlight     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	authorizerDenied *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ems",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		sessionRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ems",
			Name:      "session_rejections_total",
			Help:      "Rejected session tokens by error code.",
		}, []string{"code"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ems",
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ems",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ems",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		authorizerDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ems",
			Name:      "authorization_denials_total",
			Help:      "Requests denied by the authorization chain by error code.",
		}, []string{"code"}),
	}
	c.registry.MustRegister(
		c.loginAttempts,
		c.sessionRejected,
		c.httpInFlight,
		c.httpRequests,
		c.httpDuration,
		c.authorizerDenied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) LoginAttempt(outcome string) {
	c.loginAttempts.WithLabelValues(outcome).Inc()
}

func (c *Collector) SessionRejected(code string) {
	c.sessionRejected.WithLabelValues(code).Inc()
}

func (c *Collector) AuthorizationDenied(code string) {
	c.authorizerDenied.WithLabelValues(code).Inc()
}

// RequestStarted marks a request in flight and returns the function that completes it.
func (c *Collector) RequestStarted() func(method, route, status string, seconds float64) {
	c.httpInFlight.Inc()
	return func(method, route, status string, seconds float64) {
		c.httpInFlight.Dec()
		c.httpRequests.WithLabelValues(method, route, status).Inc()
		c.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
