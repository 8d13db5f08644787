package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "expenses",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expenses",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expenses",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expenses",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of chat completion calls by purpose and outcome.",
		},
		[]string{"purpose", "outcome"},
	)

	llmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expenses",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of chat completion calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"purpose"},
	)

	insightSources = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expenses",
			Subsystem: "insights",
			Name:      "results_total",
			Help:      "Insight, answer and category results by source (rule, ai, fallback, cache).",
		},
		[]string{"kind", "source"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		llmCalls,
		llmDuration,
		insightSources,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection. Paths are reported
// as their route templates so that ids do not create new series.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := routePath(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLLMCall records a chat completion call. Outcome is one of ok, error or disabled.
func RecordLLMCall(purpose string, outcome string, duration time.Duration) {
	if purpose == "" {
		purpose = "unknown"
	}
	llmCalls.WithLabelValues(purpose, outcome).Inc()
	if outcome != "disabled" {
		llmDuration.WithLabelValues(purpose).Observe(duration.Seconds())
	}
}

// RecordInsightSource counts where an AI-layer result came from.
func RecordInsightSource(kind string, source string) {
	insightSources.WithLabelValues(kind, source).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if pathTemplate, err := route.GetPathTemplate(); err == nil {
			return pathTemplate
		}
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return "/api/unmatched"
	}
	return "/static"
}
