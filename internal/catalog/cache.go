package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cache manages raw catalog data files on disk. Star and constellation data
// are written as a timestamped pair so a later load always sees a matched
// snapshot.
type Cache struct {
	dir      string
	maxPairs int
}

// NewCache creates a Cache that stores files in dir and keeps at most
// maxPairs snapshots.
func NewCache(dir string, maxPairs int) *Cache {
	if maxPairs <= 0 {
		maxPairs = 3
	}
	return &Cache{
		dir:      dir,
		maxPairs: maxPairs,
	}
}

// Write saves a star/constellation data pair under a shared timestamp and
// prunes old snapshots beyond maxPairs. Each file goes through a temporary
// name and a rename, so a crash mid-write never leaves a truncated file
// under a snapshot name.
func (c *Cache) Write(stars, lines []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	unix := ts.Unix()
	starsPath := filepath.Join(c.dir, fmt.Sprintf("stars_%d.dat", unix))
	linesPath := filepath.Join(c.dir, fmt.Sprintf("lines_%d.fab", unix))

	if err := c.writeFile(starsPath, stars); err != nil {
		return fmt.Errorf("writing star cache file: %w", err)
	}
	if err := c.writeFile(linesPath, lines); err != nil {
		return fmt.Errorf("writing constellation cache file: %w", err)
	}

	return c.prune()
}

// writeFile writes data to path via a temporary file in the cache dir and a
// rename into place.
func (c *Cache) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".catalog-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// LoadLatest reads the newest complete snapshot pair by timestamp.
// Returns the star data, constellation data, snapshot timestamp, and any error.
func (c *Cache) LoadLatest() ([]byte, []byte, time.Time, error) {
	snaps, err := c.listSnapshots()
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, nil, time.Time{}, fmt.Errorf("no catalog cache found")
	}

	// Snapshots are sorted oldest first; take the last one.
	latest := snaps[len(snaps)-1]
	stars, err := os.ReadFile(filepath.Join(c.dir, fmt.Sprintf("stars_%d.dat", latest.Unix())))
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("reading star cache file: %w", err)
	}
	lines, err := os.ReadFile(filepath.Join(c.dir, fmt.Sprintf("lines_%d.fab", latest.Unix())))
	if err != nil {
		return nil, nil, time.Time{}, fmt.Errorf("reading constellation cache file: %w", err)
	}

	return stars, lines, latest, nil
}

// listSnapshots returns timestamps for which both files of the pair exist,
// sorted oldest first.
func (c *Cache) listSnapshots() ([]time.Time, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	stars := make(map[int64]bool)
	lines := make(map[int64]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "stars_") && strings.HasSuffix(name, ".dat"):
			if unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "stars_"), ".dat"), 10, 64); err == nil {
				stars[unix] = true
			}
		case strings.HasPrefix(name, "lines_") && strings.HasSuffix(name, ".fab"):
			if unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "lines_"), ".fab"), 10, 64); err == nil {
				lines[unix] = true
			}
		}
	}

	var snaps []time.Time
	for unix := range stars {
		if lines[unix] {
			snaps = append(snaps, time.Unix(unix, 0))
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Before(snaps[j]) })

	return snaps, nil
}

func (c *Cache) prune() error {
	snaps, err := c.listSnapshots()
	if err != nil {
		return err
	}
	if len(snaps) <= c.maxPairs {
		return nil
	}

	for _, ts := range snaps[:len(snaps)-c.maxPairs] {
		unix := ts.Unix()
		for _, name := range []string{
			fmt.Sprintf("stars_%d.dat", unix),
			fmt.Sprintf("lines_%d.fab", unix),
		} {
			if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
				return fmt.Errorf("pruning cache file %s: %w", name, err)
			}
		}
	}

	return nil
}
