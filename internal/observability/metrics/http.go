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

// HTTPServerMetrics owns the api binary's registry: the generic HTTP surface
// plus the resolution pipeline series.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	resolutionsTotal   *prometheus.CounterVec
	resolutionLines    *prometheus.HistogramVec
	resolutionMatched  *prometheus.HistogramVec
	resolutionDuration *prometheus.HistogramVec
	catalogSize        prometheus.Gauge
	rebuildsTotal      prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procurement",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procurement",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procurement",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "resolutions_total",
			Help:      "Total completed resolutions by decomposition path.",
		},
		[]string{"service", "path"},
	)
	resolutionLines := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "decomposed_lines",
			Help:      "Distribution of line items per resolution after decomposition.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "path"},
	)
	resolutionMatched := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "matched_lines",
			Help:      "Distribution of matched line items per resolution.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "path"},
	)
	resolutionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "resolution_duration_seconds",
			Help:      "End-to-end resolution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "path"},
	)
	catalogSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "catalog_size",
			Help:      "Items in the currently served catalog snapshot.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rebuildsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procurement",
			Subsystem: "pipeline",
			Name:      "index_rebuilds_total",
			Help:      "Total completed index rebuilds.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		resolutionsTotal,
		resolutionLines,
		resolutionMatched,
		resolutionDuration,
		catalogSize,
		rebuildsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		resolutionsTotal:   resolutionsTotal,
		resolutionLines:    resolutionLines,
		resolutionMatched:  resolutionMatched,
		resolutionDuration: resolutionDuration,
		catalogSize:        catalogSize,
		rebuildsTotal:      rebuildsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
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
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveResolution satisfies the pipeline metrics surface the use cases see.
func (m *HTTPServerMetrics) ObserveResolution(path string, matchedLines, totalLines int, seconds float64) {
	if path == "" {
		path = "unknown"
	}
	m.resolutionsTotal.WithLabelValues(m.service, path).Inc()
	m.resolutionLines.WithLabelValues(m.service, path).Observe(float64(totalLines))
	m.resolutionMatched.WithLabelValues(m.service, path).Observe(float64(matchedLines))
	m.resolutionDuration.WithLabelValues(m.service, path).Observe(seconds)
}

func (m *HTTPServerMetrics) SetCatalogSize(n int) {
	m.catalogSize.Set(float64(n))
}

func (m *HTTPServerMetrics) IncRebuild() {
	m.rebuildsTotal.Inc()
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/catalog/items/"):
		return "/v1/catalog/items/{item_id}/similar"
	default:
		return path
	}
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
