package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "register", "get"
	)

	// Person operation counter
	PersonOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_person_operations_total",
			Help: "Total number of person operations",
		},
		[]string{"operation"}, // operation can be "register", "get", "add_felling"
	)

	// Fellings posted by mood category
	FellingCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_fellings_created_total",
			Help: "Total number of fellings posted",
		},
		[]string{"type"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // type can be "invalid_token", "no_email", "not_member", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// Responses by status category (2xx, 4xx, 5xx)
	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "howyoufell_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "howyoufell_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "method", "status"},
	)

	// Store operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "howyoufell_db_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(PersonOperationCounter)
	prometheus.MustRegister(FellingCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCodeCategoryCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures store operation durations:
//
//	defer prometheus.TrackDBOperation("tenant_find")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware(serviceName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let echo write the response so the recorded status is the real one
				c.Error(err)
			}

			duration := time.Since(start).Seconds()
			code := c.Response().Status
			labels := prometheus.Labels{
				"service":  serviceName,
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   strconv.Itoa(code),
			}

			RequestDuration.With(labels).Observe(duration)
			HTTPRequestCounter.With(labels).Inc()
			if category := statusCategory(code); category != "" {
				StatusCodeCategoryCounter.WithLabelValues(serviceName, category).Inc()
			}

			return nil
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// RecordAuthError records an authentication or authorization failure by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordPersonOperation records a person operation
func RecordPersonOperation(operation string) {
	PersonOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordFelling records a posted felling by its mood category
func RecordFelling(fellingType string) {
	FellingCounter.With(prometheus.Labels{"type": fellingType}).Inc()
}
