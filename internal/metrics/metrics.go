package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starmap_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starmap_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	buildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starmap_builds_total",
			Help: "Total number of star map builds by outcome.",
		},
		[]string{"outcome"},
	)

	buildDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "starmap_build_duration_seconds",
			Help:    "Star map build duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	starsProjected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "starmap_stars_projected",
			Help:    "Number of stars projected per build.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
	)

	catalogStars = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "starmap_catalog_stars",
			Help: "Number of stars in the loaded catalog snapshot.",
		},
	)

	catalogAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "starmap_catalog_age_seconds",
			Help: "Age of the loaded catalog snapshot in seconds.",
		},
	)

	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starmap_render_cache_hits_total",
			Help: "Render cache hits.",
		},
	)

	cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starmap_render_cache_misses_total",
			Help: "Render cache misses.",
		},
	)

	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "starmap_render_cache_evictions_total",
			Help: "Render cache evictions.",
		},
	)

	rendersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "starmap_renders_active",
			Help: "Render requests currently in flight.",
		},
	)

	renderRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starmap_render_rejections_total",
			Help: "Render requests rejected before building, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		buildsTotal,
		buildDurationSeconds,
		starsProjected,
		catalogStars,
		catalogAgeSeconds,
		cacheHits,
		cacheMisses,
		cacheEvictions,
		rendersActive,
		renderRejections,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBuild records one completed build attempt.
func RecordBuild(duration time.Duration, outcome string, projected int) {
	buildsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		buildDurationSeconds.Observe(duration.Seconds())
		starsProjected.Observe(float64(projected))
	}
}

// SetCatalogStars updates the catalog star count gauge.
func SetCatalogStars(n int) {
	catalogStars.Set(float64(n))
}

// SetCatalogAge updates the catalog snapshot age gauge.
func SetCatalogAge(seconds float64) {
	catalogAgeSeconds.Set(seconds)
}

// IncCacheHits increments the render cache hit counter.
func IncCacheHits() { cacheHits.Inc() }

// IncCacheMisses increments the render cache miss counter.
func IncCacheMisses() { cacheMisses.Inc() }

// AddCacheEvictions adds n to the render cache eviction counter.
func AddCacheEvictions(n int) { cacheEvictions.Add(float64(n)) }

// IncRendersActive increments the in-flight render gauge.
func IncRendersActive() { rendersActive.Inc() }

// DecRendersActive decrements the in-flight render gauge.
func DecRendersActive() { rendersActive.Dec() }

// IncRenderRejections counts a rejected render request.
func IncRenderRejections(reason string) {
	renderRejections.WithLabelValues(reason).Inc()
}

// knownRoutes are the exact paths the server registers.
var knownRoutes = map[string]bool{
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/api/v1/render":           true,
	"/api/v1/catalog/metadata": true,
	"/api/v1/cache/stats":      true,
}

// normalizeRoute collapses unknown paths into a single "other" label so
// bot traffic cannot explode metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
