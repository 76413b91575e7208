package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arqalite/starmap/internal/auth"
	"github.com/arqalite/starmap/internal/catalog"
	"github.com/arqalite/starmap/internal/health"
	"github.com/arqalite/starmap/internal/httputil"
	"github.com/arqalite/starmap/internal/localtime"
	"github.com/arqalite/starmap/internal/metrics"
	"github.com/arqalite/starmap/internal/render"
	"github.com/arqalite/starmap/internal/rendercache"
	"github.com/arqalite/starmap/internal/starmap"
)

// Config holds server-level configuration.
type Config struct {
	Addr            string
	TrustProxy      bool
	MaxRendersPerIP int
	MaxRendersTotal int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, logger *slog.Logger, authCfg auth.Config,
	builder *starmap.Builder, renderer *render.Renderer,
	store *catalog.Store, cache *rendercache.Cache) *Server {

	limiter := httputil.NewRenderLimiter(cfg.MaxRendersPerIP, cfg.MaxRendersTotal)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(store))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/render", renderHandler(logger, builder, renderer, cache, limiter, cfg.TrustProxy))
	mux.HandleFunc("GET /api/v1/catalog/metadata", catalogMetadataHandler(store))
	mux.HandleFunc("GET /api/v1/cache/stats", cacheStatsHandler(cache))

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      120 * time.Second, // renders at high DPI take a while
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// renderRequest is the JSON body of POST /api/v1/render. Numeric fields are
// strings on purpose: the build pipeline validates textual input itself and
// names the offending field on failure.
type renderRequest struct {
	LocalDateTime      string  `json:"local_datetime"`
	Latitude           string  `json:"latitude"`
	Longitude          string  `json:"longitude"`
	UseConstellations  bool    `json:"use_constellations"`
	ConstellationColor string  `json:"constellation_color"`
	ConstellationWidth float64 `json:"constellation_width"`
	StarColor          string  `json:"star_color"`
	BackgroundColor    string  `json:"background_color"`
	BackgroundAlpha    float64 `json:"background_alpha"`
	StarScaling        string  `json:"star_scaling"`
	MaxMagnitude       string  `json:"max_magnitude"`
	StarSizeLimit      string  `json:"star_size_limit"`
	DPI                string  `json:"dpi"`
}

func (rr renderRequest) params() starmap.BuildParams {
	return starmap.BuildParams{
		LocalDateTime:      rr.LocalDateTime,
		Latitude:           rr.Latitude,
		Longitude:          rr.Longitude,
		UseConstellations:  rr.UseConstellations,
		ConstellationColor: rr.ConstellationColor,
		ConstellationWidth: rr.ConstellationWidth,
		StarColor:          rr.StarColor,
		BackgroundColor:    rr.BackgroundColor,
		BackgroundAlpha:    rr.BackgroundAlpha,
		StarScaling:        rr.StarScaling,
		MaxMagnitude:       rr.MaxMagnitude,
		StarSizeLimit:      rr.StarSizeLimit,
		DPI:                rr.DPI,
		// The image is streamed in the response; no file is written.
		OutputPath: "-",
	}
}

func renderHandler(logger *slog.Logger, builder *starmap.Builder, renderer *render.Renderer,
	cache *rendercache.Cache, limiter *httputil.RenderLimiter, trustProxy bool) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body", "")
			return
		}
		params := req.params()

		key := rendercache.Key(params)
		if entry := cache.Get(key); entry != nil {
			writePNG(w, entry, "HIT")
			return
		}

		ip := httputil.ClientIP(r, trustProxy)
		if !limiter.Acquire(ip) {
			metrics.IncRenderRejections("rate_limit")
			logger.Warn("render rate limit exceeded", "remote_ip", ip, "current_count", limiter.Count(ip))
			w.Header().Set("Retry-After", "10")
			writeError(w, http.StatusTooManyRequests, "too many concurrent renders", "")
			return
		}
		defer limiter.Release(ip)

		metrics.IncRendersActive()
		defer metrics.DecRendersActive()

		result, err := builder.Build(params)
		if err != nil {
			status, field := classifyBuildError(err)
			if status == http.StatusInternalServerError {
				logger.Error("build failed", "error", err)
			}
			writeError(w, status, err.Error(), field)
			return
		}

		png, err := renderer.RenderBytes(result.Primitives, result.Style)
		if err != nil {
			logger.Error("render failed", "error", err)
			writeError(w, http.StatusInternalServerError, "render failed", "")
			return
		}

		entry := &rendercache.Entry{
			PNG:         png,
			Instant:     result.Instant,
			SunUp:       result.SunUp,
			GeneratedAt: time.Now(),
		}
		cache.Put(key, entry)
		writePNG(w, entry, "MISS")
	}
}

// classifyBuildError maps build failures to HTTP status codes and, for
// validation failures, the offending field name.
func classifyBuildError(err error) (int, string) {
	var ve *starmap.ValidationError
	var ue *starmap.UnresolvedStarReferenceError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Field
	case errors.Is(err, localtime.ErrInvalidTimeFormat):
		return http.StatusBadRequest, "local_datetime"
	case errors.Is(err, localtime.ErrTimezoneResolution):
		return http.StatusUnprocessableEntity, ""
	case errors.Is(err, starmap.ErrNoCatalog):
		return http.StatusServiceUnavailable, ""
	case errors.As(err, &ue):
		return http.StatusInternalServerError, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func writePNG(w http.ResponseWriter, entry *rendercache.Entry, cacheState string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.PNG)))
	w.Header().Set("X-Cache", cacheState)
	w.Header().Set("X-Observation-Instant", entry.Instant.UTC().Format(time.RFC3339))
	w.Header().Set("X-Sun-Up", strconv.FormatBool(entry.SunUp))
	w.WriteHeader(http.StatusOK)
	w.Write(entry.PNG)
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": msg}
	if field != "" {
		body["field"] = field
	}
	json.NewEncoder(w).Encode(body)
}

func catalogMetadataHandler(store *catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := store.Get()
		if ds == nil {
			writeError(w, http.StatusServiceUnavailable, "no catalog loaded", "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"source":         ds.Source,
			"fetched_at":     ds.FetchedAt.UTC().Format(time.RFC3339),
			"age_seconds":    time.Since(ds.FetchedAt).Seconds(),
			"stars":          len(ds.Stars),
			"constellations": len(ds.Constellations),
			"edges":          ds.EdgeCount(),
		})
	}
}

func cacheStatsHandler(cache *rendercache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cache.Stats())
	}
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
