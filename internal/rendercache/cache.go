// Package rendercache provides an in-memory cache of rendered star map
// images for the serve mode. Identical build parameters always produce an
// identical image, so a cached PNG can be replayed for the cache TTL
// without touching the numeric pipeline.
package rendercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arqalite/starmap/internal/metrics"
	"github.com/arqalite/starmap/internal/starmap"
)

// Config holds cache configuration.
type Config struct {
	TTL        time.Duration // entry lifetime (default: 10m)
	MaxEntries int           // hard cap on cached images (default: 256)
	Sweep      time.Duration // eviction sweep interval (default: 1m)
}

// Entry is one cached render.
type Entry struct {
	PNG         []byte
	Instant     time.Time // resolved observation instant
	SunUp       bool
	GeneratedAt time.Time
}

// Cache is a TTL-bounded map of parameter keys to rendered images.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	config Config
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a render cache.
func New(config Config, logger *slog.Logger) *Cache {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 256
	}
	if config.Sweep <= 0 {
		config.Sweep = time.Minute
	}
	return &Cache{
		entries: make(map[string]*Entry),
		config:  config,
		logger:  logger,
	}
}

// Key derives the cache key from build parameters. The output path is
// excluded: serve mode streams the image instead of writing a file.
func Key(p starmap.BuildParams) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%s|%s|%t|%s|%v|%s|%s|%v|%s|%s|%s|%s",
		p.LocalDateTime, p.Latitude, p.Longitude,
		p.UseConstellations, p.ConstellationColor, p.ConstellationWidth,
		p.StarColor, p.BackgroundColor, p.BackgroundAlpha,
		p.StarScaling, p.MaxMagnitude, p.StarSizeLimit, p.DPI,
	)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for key, or nil on miss or expiry.
func (c *Cache) Get(key string) *Entry {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Since(entry.GeneratedAt) < c.config.TTL {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return entry
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()
	return nil
}

// Put stores a rendered image. When the cache is full, the oldest entry
// makes room.
func (c *Cache) Put(key string, entry *Entry) {
	c.mu.Lock()
	if len(c.entries) >= c.config.MaxEntries {
		if victim := c.oldestLocked(); victim != "" {
			delete(c.entries, victim)
			c.evictions.Add(1)
			metrics.AddCacheEvictions(1)
		}
	}
	c.entries[key] = entry
	c.mu.Unlock()
}

// oldestLocked returns the key of the oldest entry. Caller holds mu.
func (c *Cache) oldestLocked() string {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.GeneratedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.GeneratedAt
		}
	}
	return oldestKey
}

// evictExpired removes entries past the TTL.
func (c *Cache) evictExpired() int {
	cutoff := time.Now().Add(-c.config.TTL)
	var removed int

	c.mu.Lock()
	for k, e := range c.entries {
		if e.GeneratedAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		c.logger.Debug("render cache eviction", "entries_removed", removed)
	}

	return removed
}

// Start runs the eviction sweep until ctx is cancelled.
func (c *Cache) Start(ctx context.Context) {
	ticker := time.NewTicker(c.config.Sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Stats holds cache statistics for the stats endpoint.
type Stats struct {
	Entries   int   `json:"entries"`
	SizeBytes int64 `json:"size_bytes"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	count := len(c.entries)
	var size int64
	for _, e := range c.entries {
		size += int64(len(e.PNG))
	}
	c.mu.RUnlock()

	return Stats{
		Entries:   count,
		SizeBytes: size,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
