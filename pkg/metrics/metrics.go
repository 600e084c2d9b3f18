package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config represents metrics configuration.
type Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Collector manages all metrics for the service.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec

	// Pipeline metrics
	DocumentsParsed    *prometheus.CounterVec
	AggregatesWritten  prometheus.Counter
	ReconcileRunsTotal *prometheus.CounterVec

	// Database metrics
	DatabaseQueries  *prometheus.CounterVec
	DatabaseDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		namespace: namespace,
		registry:  registry,
	}

	c.RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	c.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status_code"},
	)

	c.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"error_type", "component"},
	)

	c.DocumentsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_parsed_total",
			Help:      "Total number of raw documents decoded into parsed collections",
		},
		[]string{"collection"},
	)

	c.AggregatesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregates_written_total",
			Help:      "Total number of aggregate records written by reconciliation",
		},
	)

	c.ReconcileRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Total number of reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	c.DatabaseQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_queries_total",
			Help:      "Total number of database operations",
		},
		[]string{"operation", "collection"},
	)

	c.DatabaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_query_duration_seconds",
			Help:      "Database operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "collection"},
	)

	registry.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.ErrorsTotal,
		c.DocumentsParsed,
		c.AggregatesWritten,
		c.ReconcileRunsTotal,
		c.DatabaseQueries,
		c.DatabaseDuration,
	)

	return c
}

// RecordDatabaseQuery records a database operation and its duration.
func (c *Collector) RecordDatabaseQuery(operation, collection string, duration time.Duration) {
	c.DatabaseQueries.WithLabelValues(operation, collection).Inc()
	c.DatabaseDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

// RecordError records an error by type and component.
func (c *Collector) RecordError(errorType, component string) {
	c.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware instruments gin requests with count and duration metrics.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())

		c.RequestsTotal.WithLabelValues(ctx.Request.Method, endpoint, status).Inc()
		c.RequestDuration.WithLabelValues(ctx.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
	}
}
