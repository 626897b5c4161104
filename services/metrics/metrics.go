// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/uniasistencia/backend/core/notification"
)

type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	checks        *prometheus.CounterVec
	flagged       *prometheus.GaugeVec
}

var _ notification.Metrics = (*Metrics)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatch attempts by audience and outcome.",
		}, []string{"audience", "outcome"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_checks_total",
			Help:      "Attendance checks run by kind.",
		}, []string{"kind"}),
		flagged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attendance_check_flagged",
			Help:      "Classes flagged by the last check of each kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requests, m.latency, m.notifications, m.checks, m.flagged)
	return m
}

func (m *Metrics) Dispatched(audience notification.Audience, outcome notification.Outcome) {
	m.notifications.WithLabelValues(string(audience), string(outcome)).Inc()
}

func (m *Metrics) CheckRan(kind notification.CheckKind, flagged int) {
	m.checks.WithLabelValues(string(kind)).Inc()
	m.flagged.WithLabelValues(string(kind)).Set(float64(flagged))
}

// Middleware observes every request by its route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			route := c.Path()
			m.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(route, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
