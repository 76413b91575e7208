package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Refresh downloads a fresh catalog snapshot, persists it to the disk cache,
// parses it, and installs it in the store. Concurrent refreshes are
// serialized through the store's refresh mutex; readers keep their old
// snapshot until the new one is installed atomically.
func Refresh(ctx context.Context, f *Fetcher, c *Cache, s *Store, logger *slog.Logger) (*Dataset, error) {
	s.Lock()
	defer s.Unlock()

	starsRaw, err := f.FetchStars(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching star catalog: %w", err)
	}
	linesRaw, err := f.FetchConstellations(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching constellation data: %w", err)
	}

	ts := time.Now()
	if c != nil {
		if err := c.Write(starsRaw, linesRaw, ts); err != nil {
			// A cache write failure is not fatal; the in-memory snapshot
			// still serves until the next restart.
			logger.Warn("failed to write catalog cache", "error", err)
		}
	}

	ds, err := Load(starsRaw, linesRaw, "fetch", ts, logger)
	if err != nil {
		return nil, err
	}
	s.Set(ds)

	logger.Info("catalog refreshed",
		"stars", len(ds.Stars),
		"constellations", len(ds.Constellations),
		"edges", ds.EdgeCount(),
	)

	return ds, nil
}

// Load parses raw star and constellation data into a Dataset.
func Load(starsRaw, linesRaw []byte, source string, fetchedAt time.Time, logger *slog.Logger) (*Dataset, error) {
	stars, err := ParseStars(bytes.NewReader(starsRaw), logger)
	if err != nil {
		return nil, err
	}
	if len(stars) == 0 {
		return nil, fmt.Errorf("star catalog contains no usable records")
	}

	constellations, err := ParseConstellations(bytes.NewReader(linesRaw), logger)
	if err != nil {
		return nil, err
	}

	return NewDataset(source, fetchedAt, stars, constellations), nil
}
