// Package metrics holds the Prometheus collectors exported on /api/metrics.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global     *Metrics
	globalOnce sync.Once
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AIRequestsTotal   *prometheus.CounterVec
	AIRequestDuration *prometheus.HistogramVec

	EmailsTotal    *prometheus.CounterVec
	JobRunsTotal   *prometheus.CounterVec
	WebhooksTotal  *prometheus.CounterVec
	WSConnections  prometheus.Gauge
	TasksCompleted prometheus.Counter
}

// Get returns the process-wide collectors, registering them on first use.
//
// Metrics:
//   - eventease_http_requests_total{method,route,status}
//   - eventease_http_request_duration_seconds{method,route}
//   - eventease_ai_requests_total{service,outcome}
//   - eventease_ai_request_duration_seconds{service}
//   - eventease_emails_total{kind,outcome}
//   - eventease_job_runs_total{job,outcome}
//   - eventease_webhooks_total{target,outcome}
//   - eventease_ws_connections
//   - eventease_tasks_completed_total
func Get() *Metrics {
	globalOnce.Do(func() {
		global = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eventease_http_requests_total",
					Help: "Total number of HTTP requests served",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "eventease_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			AIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eventease_ai_requests_total",
					Help: "Total number of calls to external AI services",
				},
				[]string{"service", "outcome"},
			),
			AIRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "eventease_ai_request_duration_seconds",
					Help:    "Latency of external AI service calls in seconds",
					Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
				[]string{"service"},
			),
			EmailsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eventease_emails_total",
					Help: "Total number of emails handed to the mailer",
				},
				[]string{"kind", "outcome"},
			),
			JobRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eventease_job_runs_total",
					Help: "Total number of scheduled job runs",
				},
				[]string{"job", "outcome"},
			),
			WebhooksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "eventease_webhooks_total",
					Help: "Total number of Discord/Slack webhook deliveries",
				},
				[]string{"target", "outcome"},
			),
			WSConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "eventease_ws_connections",
					Help: "Open event websocket connections",
				},
			),
			TasksCompleted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "eventease_tasks_completed_total",
					Help: "Total number of tasks marked completed",
				},
			),
		}
	})
	return global
}

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveAI records one external AI call.
func ObserveAI(service string, start time.Time, err error) {
	m := Get()
	m.AIRequestsTotal.WithLabelValues(service, Outcome(err)).Inc()
	m.AIRequestDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// Middleware counts requests by matched route so path ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	m := Get()
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
