// Package localtime turns an observer's wall-clock date-time and geographic
// coordinates into an absolute UTC instant, resolving the timezone purely
// from the coordinates.
package localtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/ringsaturn/tzf"
)

// Layout is the only accepted date-time input format.
const Layout = "2006-01-02 15:04"

// ErrInvalidTimeFormat reports a date-time string that does not match Layout.
var ErrInvalidTimeFormat = errors.New("invalid time format, expected YYYY-MM-DD HH:MM")

// ErrTimezoneResolution reports coordinates for which no IANA timezone could
// be determined.
var ErrTimezoneResolution = errors.New("no timezone found for coordinates")

// Resolver converts local date-times to UTC instants using timezone lookup
// from coordinates. Safe for concurrent use.
type Resolver struct {
	finder tzf.F
}

// NewResolver creates a Resolver backed by the embedded timezone boundary
// data. Construction parses that data once and is comparatively expensive;
// build one Resolver per process and reuse it.
func NewResolver() (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("initializing timezone finder: %w", err)
	}
	return &Resolver{finder: finder}, nil
}

// Resolve parses value under Layout, localizes it into the IANA timezone
// containing (latDeg, lonDeg), and returns the corresponding UTC instant.
//
// A wall-clock time inside a DST spring-forward gap normalizes onto the
// offset in force after the transition; an ambiguous fall-back time resolves
// to the earlier offset. Both follow Go's time.Date normalization and are
// deterministic for a given tzdata. Ocean coordinates resolve to the
// maritime Etc/GMT± zones.
func (r *Resolver) Resolve(value string, latDeg, lonDeg float64) (time.Time, error) {
	parsed, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}

	name := r.finder.GetTimezoneName(lonDeg, latDeg)
	if name == "" {
		return time.Time{}, fmt.Errorf("%w: lat=%v lon=%v", ErrTimezoneResolution, latDeg, lonDeg)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: loading %q: %v", ErrTimezoneResolution, name, err)
	}

	local := time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc)

	return local.UTC(), nil
}
