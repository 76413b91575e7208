// Command render generates a single star map image from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/arqalite/starmap/internal/catalog"
	"github.com/arqalite/starmap/internal/ephemeris"
	"github.com/arqalite/starmap/internal/localtime"
	"github.com/arqalite/starmap/internal/render"
	"github.com/arqalite/starmap/internal/starmap"
)

func main() {
	var (
		datetime  = flag.String("time", "", "local date and time, YYYY-MM-DD HH:MM (required)")
		lat       = flag.String("lat", "", "observer latitude in degrees (required)")
		long      = flag.String("long", "", "observer longitude in degrees (required)")
		out       = flag.String("out", "starmap.png", "output PNG path")
		useCons   = flag.Bool("constellations", true, "draw constellation lines")
		consColor = flag.String("constellation-color", "#ffffff", "constellation line color, #RRGGBB")
		consWidth = flag.Float64("constellation-width", 0.3, "constellation line width")
		starColor = flag.String("star-color", "#ffffff", "star marker color, #RRGGBB")
		bgColor   = flag.String("bg-color", "#000000", "background color, #RRGGBB")
		bgAlpha   = flag.Float64("bg-alpha", 1.0, "background opacity, 0-1")
		scaling   = flag.String("star-scaling", "100", "star marker scaling factor")
		maxMag    = flag.String("max-magnitude", "10", "magnitude cutoff, 0-15 (higher shows more stars)")
		sizeLimit = flag.String("star-size-limit", "400", "upper bound on marker size")
		dpi       = flag.String("dpi", "500", "output resolution in dots per inch")
		cacheDir  = flag.String("catalog-dir", "/tmp/starmap/catalog", "catalog disk cache directory")
		starsURL  = flag.String("stars-url", "", "override star catalog source URL")
		linesURL  = flag.String("lines-url", "", "override constellation data source URL")
		fetch     = flag.Bool("fetch", true, "fetch the catalog if no disk cache exists")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *datetime == "" || *lat == "" || *long == "" {
		fmt.Fprintln(os.Stderr, "error: -time, -lat and -long are required")
		flag.Usage()
		os.Exit(2)
	}

	store := catalog.NewStore()
	if err := loadCatalog(store, *cacheDir, *starsURL, *linesURL, *fetch, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	resolver, err := localtime.NewResolver()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	builder := starmap.NewBuilder(resolver, ephemeris.NewAnalytic(), store, logger)

	result, err := builder.Build(starmap.BuildParams{
		LocalDateTime:      *datetime,
		Latitude:           *lat,
		Longitude:          *long,
		UseConstellations:  *useCons,
		ConstellationColor: *consColor,
		ConstellationWidth: *consWidth,
		StarColor:          *starColor,
		BackgroundColor:    *bgColor,
		BackgroundAlpha:    *bgAlpha,
		StarScaling:        *scaling,
		MaxMagnitude:       *maxMag,
		StarSizeLimit:      *sizeLimit,
		DPI:                *dpi,
		OutputPath:         *out,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if result.SunUp {
		fmt.Fprintln(os.Stderr, "note: the sun is above the horizon at this time; the map shows stars the daylight would hide")
	}

	renderer := render.NewRenderer(logger)
	if err := renderer.Render(result.Primitives, result.Style, result.OutputPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%d stars, %d constellation segments, observed %s UTC)\n",
		result.OutputPath,
		result.KeptStars,
		len(result.Primitives.Segments),
		result.Instant.Format("2006-01-02 15:04"),
	)
}

// loadCatalog fills the store from the disk cache, fetching a fresh copy
// when the cache is empty and fetching is allowed.
func loadCatalog(store *catalog.Store, cacheDir, starsURL, linesURL string, fetch bool, logger *slog.Logger) error {
	diskCache := catalog.NewCache(cacheDir, 0)

	starsRaw, linesRaw, ts, err := diskCache.LoadLatest()
	if err == nil {
		ds, err := catalog.Load(starsRaw, linesRaw, "cache", ts, logger)
		if err == nil {
			store.Set(ds)
			return nil
		}
		logger.Warn("failed to parse cached catalog, refetching", "error", err)
	}

	if !fetch {
		return errors.New("no catalog cache found and fetching is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fetcher := catalog.NewFetcher(starsURL, linesURL, logger)
	_, err = catalog.Refresh(ctx, fetcher, diskCache, store, logger)
	return err
}
