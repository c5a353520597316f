package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	recommendationsTotal *prometheus.CounterVec
	noCandidatesTotal    *prometheus.CounterVec
	searchDuration       *prometheus.HistogramVec
	rerankDuration       *prometheus.HistogramVec
	batchSize            *prometheus.HistogramVec
	finalScore           *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolmatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolmatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "toolmatch",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	recommendationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "recommendations_total",
			Help:      "Total recommendations produced by outcome, task type and search strategy.",
		},
		[]string{"service", "outcome", "task_type", "strategy"},
	)
	noCandidatesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "no_candidates_total",
			Help:      "Total recommendation requests where every search strategy came back empty.",
		},
		[]string{"service", "task_type"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "search_duration_seconds",
			Help:      "Candidate search stage duration in seconds by winning strategy.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	rerankDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "rerank_duration_seconds",
			Help:      "Rerank stage duration in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"service"},
	)
	batchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "batch_size",
			Help:      "Distribution of task counts per batch recommendation request.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	finalScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toolmatch",
			Subsystem: "engine",
			Name:      "final_score",
			Help:      "Distribution of winning final scores for matched recommendations.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		recommendationsTotal,
		noCandidatesTotal,
		searchDuration,
		rerankDuration,
		batchSize,
		finalScore,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		recommendationsTotal: recommendationsTotal,
		noCandidatesTotal:    noCandidatesTotal,
		searchDuration:       searchDuration,
		rerankDuration:       rerankDuration,
		batchSize:            batchSize,
		finalScore:           finalScore,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/tools/"):
		return "/v1/tools/{tool_id}"
	case strings.HasPrefix(path, "/v1/knowledge/"):
		return "/v1/knowledge/{entry_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRecommendation(
	service, outcome, taskType, strategy string,
	searchDuration, rerankDuration time.Duration,
	finalScore float64,
) {
	if outcome == "" {
		outcome = "unknown"
	}
	if taskType == "" {
		taskType = "unknown"
	}
	if strategy == "" {
		strategy = "none"
	}

	m.recommendationsTotal.WithLabelValues(service, outcome, taskType, strategy).Inc()
	m.searchDuration.WithLabelValues(service, strategy).Observe(searchDuration.Seconds())
	m.rerankDuration.WithLabelValues(service).Observe(rerankDuration.Seconds())

	if outcome == "matched" {
		m.finalScore.WithLabelValues(service).Observe(finalScore)
		return
	}
	m.noCandidatesTotal.WithLabelValues(service, taskType).Inc()
}

func (m *HTTPServerMetrics) RecordBatch(service string, taskCount int) {
	if taskCount <= 0 {
		return
	}
	m.batchSize.WithLabelValues(service).Observe(float64(taskCount))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
