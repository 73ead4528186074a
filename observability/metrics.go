package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stock_valuator"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Analysis metrics
	AnalysisRequestsTotal *prometheus.CounterVec
	AnalysisDuration      *prometheus.HistogramVec
	AnalysisErrorsTotal   *prometheus.CounterVec

	// Scoring metrics
	ScoresTotal     *prometheus.CounterVec
	ScoreValues     *prometheus.HistogramVec
	VerdictsTotal   *prometheus.CounterVec
	CoverageRatio   *prometheus.HistogramVec
	ConfidenceTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Screener metrics
	ScreenerRunsTotal  *prometheus.CounterVec
	ScreenerDuration   prometheus.Histogram
	ScreenerCandidates prometheus.Histogram

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// scoreBuckets follow the verdict cutoffs so a bucket never straddles two verdicts
var scoreBuckets = []float64{10, 20, 30, 44, 55, 69, 80, 90, 100}

var coverageBuckets = []float64{0, .125, .25, .375, .5, .55, .625, .75, .8, .875, 1}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		AnalysisRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "requests_total",
				Help:      "Total number of symbol analysis requests",
			},
			[]string{"symbol"},
		),
		AnalysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Duration of symbol analysis including provider calls",
				Buckets:   defaultBuckets,
			},
			[]string{"symbol", "status"},
		),
		AnalysisErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "errors_total",
				Help:      "Total number of analysis errors",
			},
			[]string{"symbol", "error_type"},
		),

		ScoresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "scores_total",
				Help:      "Total number of scores computed by template",
			},
			[]string{"template"},
		),
		ScoreValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "score",
				Help:      "Distribution of final scores",
				Buckets:   scoreBuckets,
			},
			[]string{"template"},
		),
		VerdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "verdicts_total",
				Help:      "Total number of verdicts by type",
			},
			[]string{"verdict"},
		),
		CoverageRatio: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "coverage_ratio",
				Help:      "Share of tracked metrics available per score",
				Buckets:   coverageBuckets,
			},
			[]string{"template"},
		),
		ConfidenceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "confidence_total",
				Help:      "Total number of scores by confidence rating",
			},
			[]string{"confidence"},
		),

		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		ScreenerRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "screener",
				Name:      "runs_total",
				Help:      "Total number of screener runs by final status",
			},
			[]string{"status"},
		),
		ScreenerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "screener",
				Name:      "duration_seconds",
				Help:      "Duration of screener runs in seconds",
				Buckets:   defaultBuckets,
			},
		),
		ScreenerCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "screener",
				Name:      "analyzed_candidates",
				Help:      "Number of candidates scored per screener run",
				Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 25, 50},
			},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordAnalysisRequest records a symbol analysis request
func (m *Metrics) RecordAnalysisRequest(symbol string) {
	m.AnalysisRequestsTotal.WithLabelValues(symbol).Inc()
}

// RecordAnalysisDuration records the duration of a symbol analysis
func (m *Metrics) RecordAnalysisDuration(symbol, status string, duration time.Duration) {
	m.AnalysisDuration.WithLabelValues(symbol, status).Observe(duration.Seconds())
}

// RecordAnalysisError records an analysis error
func (m *Metrics) RecordAnalysisError(symbol, errorType string) {
	m.AnalysisErrorsTotal.WithLabelValues(symbol, errorType).Inc()
}

// RecordScore records one engine result. A nil score counts the verdict and
// coverage but adds no histogram sample.
func (m *Metrics) RecordScore(template, verdict, confidence string, score *int, coverage float64) {
	m.ScoresTotal.WithLabelValues(template).Inc()
	m.VerdictsTotal.WithLabelValues(verdict).Inc()
	m.ConfidenceTotal.WithLabelValues(confidence).Inc()
	m.CoverageRatio.WithLabelValues(template).Observe(coverage)
	if score != nil {
		m.ScoreValues.WithLabelValues(template).Observe(float64(*score))
	}
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordScreenerRun records a finished screener run
func (m *Metrics) RecordScreenerRun(status string, analyzed int, duration time.Duration) {
	m.ScreenerRunsTotal.WithLabelValues(status).Inc()
	m.ScreenerDuration.Observe(duration.Seconds())
	m.ScreenerCandidates.Observe(float64(analyzed))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveAnalysis records the analysis duration and status
func (t *Timer) ObserveAnalysis(symbol, status string) {
	t.metrics.RecordAnalysisDuration(symbol, status, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
