package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ladli",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladli",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ladli",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	mailDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladli",
			Subsystem: "mail",
			Name:      "dispatch_total",
			Help:      "Emails handed to the SMTP server, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	walletTransfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladli",
			Subsystem: "wallet",
			Name:      "transfers_total",
			Help:      "Wallet transfer requests, by outcome.",
		},
		[]string{"outcome"},
	)

	matrixBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ladli",
			Subsystem: "matrix",
			Name:      "build_duration_seconds",
			Help:      "Time spent loading and rendering a team matrix.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	matrixSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ladli",
			Subsystem: "matrix",
			Name:      "members",
			Help:      "Number of members in rendered team matrices.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	matrixCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ladli",
			Subsystem: "matrix",
			Name:      "cache_lookups_total",
			Help:      "Matrix cache lookups, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		mailDispatches,
		walletTransfers,
		matrixBuildDuration,
		matrixSize,
		matrixCache,
	)
}

// Handler exposes the registry over HTTP
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies. The route template is
// used as path label so ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordMailDispatch counts one email by kind ("contact", "otp", ...)
func RecordMailDispatch(kind string, err error) {
	mailDispatches.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordWalletTransfer counts one wallet transfer attempt
func RecordWalletTransfer(outcome string) {
	walletTransfers.WithLabelValues(outcome).Inc()
}

// ObserveMatrixBuild records the duration and member count of a rendered matrix
func ObserveMatrixBuild(d time.Duration, members int) {
	matrixBuildDuration.Observe(d.Seconds())
	matrixSize.Observe(float64(members))
}

// RecordMatrixCache counts a cache hit or miss
func RecordMatrixCache(hit bool) {
	if hit {
		matrixCache.WithLabelValues("hit").Inc()
		return
	}
	matrixCache.WithLabelValues("miss").Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
