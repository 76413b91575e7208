package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultStarsURL = "https://cdsarc.cds.unistra.fr/ftp/cats/I/239/hip_main.dat"
	defaultLinesURL = "https://raw.githubusercontent.com/Stellarium/stellarium/master/skycultures/modern_st/constellationship.fab"

	// maxBodyBytes bounds a single download. The full Hipparcos main
	// catalogue is ~50 MB; anything beyond that is not catalog data.
	maxBodyBytes = 64 * 1024 * 1024
)

// Fetcher retrieves raw star-catalog and constellation-line data over HTTP.
type Fetcher struct {
	starsURL   string
	linesURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URLs. Empty URLs fall
// back to the public Hipparcos and Stellarium sources.
func NewFetcher(starsURL, linesURL string, logger *slog.Logger) *Fetcher {
	if starsURL == "" {
		starsURL = defaultStarsURL
	}
	if linesURL == "" {
		linesURL = defaultLinesURL
	}
	return &Fetcher{
		starsURL: starsURL,
		linesURL: linesURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// FetchStars downloads the raw star catalog.
func (f *Fetcher) FetchStars(ctx context.Context) ([]byte, error) {
	return f.get(ctx, f.starsURL)
}

// FetchConstellations downloads the raw constellation line data.
func (f *Fetcher) FetchConstellations(ctx context.Context) ([]byte, error) {
	return f.get(ctx, f.linesURL)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, maxBodyBytes)
	}

	f.logger.Debug("catalog source fetched",
		"url", url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return body, nil
}
