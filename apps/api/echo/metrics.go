package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// httpMetrics holds the Prometheus metrics of the HTTP requests.
type httpMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campus",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "campus",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
	}
	reg.MustRegister(m.requestDuration, m.requestsTotal, m.inFlight)
	return m
}

// middleware records the requests, labelled by route pattern. /health is skipped.
func (m *httpMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		route := ctx.Path()
		if route == "/health" {
			return next(ctx)
		}

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			status := strconv.Itoa(ctx.Response().Status)
			m.requestDuration.WithLabelValues(ctx.Request().Method, route, status).Observe(v)
			m.requestsTotal.WithLabelValues(ctx.Request().Method, route, status).Inc()
		}))

		err := next(ctx)
		if err != nil {
			// let the error handler write the status before observing
			ctx.Error(err)
			err = nil
		}
		timer.ObserveDuration()
		return err
	}
}
