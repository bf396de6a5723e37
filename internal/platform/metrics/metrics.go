// Package metrics registers the Prometheus collectors for the API and the
// bulk import pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callcare_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callcare_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callcare_import_rows_total",
			Help: "Bulk import rows by outcome",
		},
		[]string{"outcome"},
	)
	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callcare_import_duration_seconds",
			Help:    "Duration of bulk import batches in seconds",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)
	ActiveCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "callcare_active_calls",
			Help: "Patient records with a call currently in progress",
		},
	)
)

func Init() {
	for _, c := range []prometheus.Collector{RequestsTotal, RequestDuration, ImportRows, ImportDuration, ActiveCalls} {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msg("Failed to register metric")
		}
	}
}

// SetActiveCalls records how many records the watcher currently sees with a
// call in progress.
func SetActiveCalls(n int) {
	ActiveCalls.Set(float64(n))
}

// ObserveImport records one finished import batch.
func ObserveImport(succeeded, failed int, elapsed time.Duration) {
	ImportRows.WithLabelValues("succeeded").Add(float64(succeeded))
	ImportRows.WithLabelValues("failed").Add(float64(failed))
	ImportDuration.Observe(elapsed.Seconds())
}

// Middleware records request counts and latency per route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			RequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
