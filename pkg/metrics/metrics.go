// Package metrics provides Prometheus metrics for HTTP requests, background
// tasks and LLM calls.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "weather_agent"
)

// Job metric counter indices.
const (
	JobMetricTotal = iota
	JobMetricTotalSuccess
	JobMetricTotalFailed
	JobMetricTotalKilled
	JobMetricNotificationsFailed
)

// Metrics holds the collectors registered on a private registry. A nil
// collector means the corresponding group is disabled and recording into it
// is a no-op.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPResponsesCounter     *prometheus.CounterVec
	HTTPDurationHistogram    prometheus.Histogram

	JobMetricCounters map[int]prometheus.Counter
	JobsInFlight      prometheus.Gauge

	LLMCallsCounter    *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec

	log logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
// LLM call counters are always registered.
func NewMetrics(httpCounters, jobMetrics bool, l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.HTTPResponsesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "http_responses_total",
			Help:      "HTTP responses returned, by status code",
		}, []string{"code"})
		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter, m.HTTPResponsesCounter, m.HTTPDurationHistogram)
	}
	if jobMetrics {
		m.JobMetricCounters = getJobMetricCounters()
		for _, c := range m.JobMetricCounters {
			m.reg.MustRegister(c)
		}
		m.JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "jobs_in_flight",
			Help:      "Background jobs currently running",
		})
		m.reg.MustRegister(m.JobsInFlight)
	}
	m.LLMCallsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "llm_calls_total",
		Help:      "LLM calls, by purpose and outcome",
	}, []string{"purpose", "outcome"})
	m.LLMDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "llm_call_duration_seconds",
		Help:      "LLM call latency in seconds, by purpose",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
	}, []string{"purpose"})
	m.reg.MustRegister(m.LLMCallsCounter, m.LLMDurationSeconds)
	return m
}

func getJobMetricCounters() map[int]prometheus.Counter {
	newCounter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Subsystem: subsystem, Name: name, Help: help})
	}
	return map[int]prometheus.Counter{
		JobMetricTotal:               newCounter("total_jobs_handled", "Total jobs handled"),
		JobMetricTotalSuccess:        newCounter("total_jobs_successful", "Total jobs handled successfully"),
		JobMetricTotalFailed:         newCounter("total_jobs_failed", "Total jobs whose agent run failed"),
		JobMetricTotalKilled:         newCounter("total_jobs_killed", "Total jobs that panicked"),
		JobMetricNotificationsFailed: newCounter("total_notifications_failed", "Total notifications that could not be delivered"),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen serves /metrics on the given port until ctx is cancelled.
func (m *Metrics) Listen(ctx context.Context, port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error("Metrics listener failed", logger.ErrorField(err))
		}
	}()
	go func() {
		<-ctx.Done()
		m.log.Info("Stopping metrics listener")
		_ = server.Shutdown(context.Background()) //nolint:contextcheck // parent is already cancelled
	}()
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.reg.MustRegister(c)
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP status code.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	if m == nil || m.HTTPResponsesCounter == nil {
		return
	}
	m.HTTPResponsesCounter.WithLabelValues(strconv.Itoa(code)).Inc()
}

// IncJob increments one of the JobMetric* counters.
func (m *Metrics) IncJob(idx int) {
	if m == nil || m.JobMetricCounters == nil {
		return
	}
	if c, ok := m.JobMetricCounters[idx]; ok {
		c.Inc()
	}
}

// JobStarted and JobFinished track the in-flight gauge.
func (m *Metrics) JobStarted() {
	if m == nil || m.JobsInFlight == nil {
		return
	}
	m.JobsInFlight.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil || m.JobsInFlight == nil {
		return
	}
	m.JobsInFlight.Dec()
}

// ObserveLLMCall records the outcome and latency of one LLM call.
func (m *Metrics) ObserveLLMCall(purpose string, elapsed time.Duration, err error) {
	if m == nil || m.LLMCallsCounter == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMCallsCounter.WithLabelValues(purpose, outcome).Inc()
	m.LLMDurationSeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP metrics
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || m.TotalHTTPRequestsCounter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.TotalHTTPRequestsCounter.Inc()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			m.HTTPDurationHistogram.Observe(time.Since(start).Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
