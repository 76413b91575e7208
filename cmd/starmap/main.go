package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"github.com/arqalite/starmap/internal/api"
	"github.com/arqalite/starmap/internal/auth"
	"github.com/arqalite/starmap/internal/catalog"
	"github.com/arqalite/starmap/internal/ephemeris"
	"github.com/arqalite/starmap/internal/localtime"
	"github.com/arqalite/starmap/internal/metrics"
	"github.com/arqalite/starmap/internal/render"
	"github.com/arqalite/starmap/internal/rendercache"
	"github.com/arqalite/starmap/internal/starmap"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	srvCfg := loadServerConfig(logger)

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	catCfg := loadCatalogConfig(logger)
	store := catalog.NewStore()
	diskCache := catalog.NewCache(catCfg.CacheDir, catCfg.MaxSnapshots)
	fetcher := catalog.NewFetcher(catCfg.StarsURL, catCfg.LinesURL, logger)

	// Attempt to load a cached catalog on startup.
	starsRaw, linesRaw, ts, err := diskCache.LoadLatest()
	if err != nil {
		logger.Info("no catalog cache found", "error", err)
	} else {
		ds, err := catalog.Load(starsRaw, linesRaw, "cache", ts, logger)
		if err != nil {
			logger.Warn("failed to parse cached catalog", "error", err)
		} else {
			store.Set(ds)
			metrics.SetCatalogStars(len(ds.Stars))
			logger.Info("loaded catalog from cache",
				"stars", len(ds.Stars),
				"constellations", len(ds.Constellations),
				"cached_at", ts.Format(time.RFC3339),
			)
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if store.Get() == nil && catCfg.EnableFetch {
		logger.Info("fetching catalog", "stars_url", catCfg.StarsURL, "lines_url", catCfg.LinesURL)
		ds, err := catalog.Refresh(ctx, fetcher, diskCache, store, logger)
		if err != nil {
			logger.Error("initial catalog fetch failed", "error", err)
			os.Exit(1)
		}
		metrics.SetCatalogStars(len(ds.Stars))
	}

	resolver, err := localtime.NewResolver()
	if err != nil {
		logger.Error("failed to initialize timezone resolver", "error", err)
		os.Exit(1)
	}

	builder := starmap.NewBuilder(resolver, ephemeris.NewAnalytic(), store, logger)
	renderer := render.NewRenderer(logger)

	cacheCfg := loadRenderCacheConfig(logger)
	imgCache := rendercache.New(cacheCfg, logger)
	go imgCache.Start(ctx)

	// Scheduled catalog refresh.
	var sched *cron.Cron
	if catCfg.EnableFetch && catCfg.RefreshSchedule != "" {
		sched = cron.New()
		_, err := sched.AddFunc(catCfg.RefreshSchedule, func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			ds, err := catalog.Refresh(refreshCtx, fetcher, diskCache, store, logger)
			if err != nil {
				logger.Warn("scheduled catalog refresh failed", "error", err)
				return
			}
			metrics.SetCatalogStars(len(ds.Stars))
		})
		if err != nil {
			logger.Error("invalid catalog refresh schedule", "schedule", catCfg.RefreshSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetCatalogAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := api.NewServer(srvCfg, logger, authCfg, builder, renderer, store, imgCache)

	go func() {
		logger.Info("starting server",
			"addr", srvCfg.Addr,
			"auth_enabled", authCfg.Enabled,
			"catalog_fetch_enabled", catCfg.EnableFetch,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadServerConfig(logger *slog.Logger) api.Config {
	cfg := api.Config{
		Addr:            ":8080",
		MaxRendersPerIP: 2,
		MaxRendersTotal: 16,
	}

	if v := os.Getenv("STARMAP_HTTP_ADDR"); v != "" {
		cfg.Addr = v
	}

	if v := os.Getenv("STARMAP_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid STARMAP_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	if v := os.Getenv("STARMAP_MAX_RENDERS_PER_IP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid STARMAP_MAX_RENDERS_PER_IP value, using default", "value", v, "default", cfg.MaxRendersPerIP)
		} else {
			cfg.MaxRendersPerIP = n
		}
	}

	if v := os.Getenv("STARMAP_MAX_RENDERS_TOTAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid STARMAP_MAX_RENDERS_TOTAL value, using default", "value", v, "default", cfg.MaxRendersTotal)
		} else {
			cfg.MaxRendersTotal = n
		}
	}

	logger.Info("server config",
		"addr", cfg.Addr,
		"trust_proxy", cfg.TrustProxy,
		"max_renders_per_ip", cfg.MaxRendersPerIP,
		"max_renders_total", cfg.MaxRendersTotal,
	)

	return cfg
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("STARMAP_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("STARMAP_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("STARMAP_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("STARMAP_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// catalogConfig holds catalog source and refresh configuration.
type catalogConfig struct {
	StarsURL        string
	LinesURL        string
	CacheDir        string
	MaxSnapshots    int
	EnableFetch     bool
	RefreshSchedule string // cron spec, empty disables scheduled refresh
}

func loadCatalogConfig(logger *slog.Logger) catalogConfig {
	cfg := catalogConfig{
		CacheDir:        "/tmp/starmap/catalog",
		MaxSnapshots:    3,
		EnableFetch:     true,
		RefreshSchedule: "@every 168h", // the catalog is static; weekly is generous
	}

	if v := os.Getenv("STARMAP_CATALOG_STARS_URL"); v != "" {
		cfg.StarsURL = v
	}
	if v := os.Getenv("STARMAP_CATALOG_LINES_URL"); v != "" {
		cfg.LinesURL = v
	}
	if v := os.Getenv("STARMAP_CATALOG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("STARMAP_CATALOG_MAX_SNAPSHOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid STARMAP_CATALOG_MAX_SNAPSHOTS value, using default", "value", v, "default", cfg.MaxSnapshots)
		} else {
			cfg.MaxSnapshots = n
		}
	}

	if v := os.Getenv("STARMAP_ENABLE_CATALOG_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid STARMAP_ENABLE_CATALOG_FETCH value, defaulting to true", "value", v)
		} else {
			cfg.EnableFetch = enabled
		}
	}

	if v, ok := os.LookupEnv("STARMAP_CATALOG_REFRESH_SCHEDULE"); ok {
		cfg.RefreshSchedule = v
	}

	logger.Info("catalog config",
		"stars_url", cfg.StarsURL,
		"lines_url", cfg.LinesURL,
		"cache_dir", cfg.CacheDir,
		"refresh_schedule", cfg.RefreshSchedule,
	)

	return cfg
}

func loadRenderCacheConfig(logger *slog.Logger) rendercache.Config {
	cfg := rendercache.Config{
		TTL:        10 * time.Minute,
		MaxEntries: 256,
	}

	if v := os.Getenv("STARMAP_RENDER_CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid STARMAP_RENDER_CACHE_TTL value, using default", "value", v, "default", 600)
		} else {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("STARMAP_RENDER_CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid STARMAP_RENDER_CACHE_MAX_ENTRIES value, using default", "value", v, "default", cfg.MaxEntries)
		} else {
			cfg.MaxEntries = n
		}
	}

	logger.Info("render cache config",
		"ttl_seconds", cfg.TTL.Seconds(),
		"max_entries", cfg.MaxEntries,
	)

	return cfg
}
