// Package starmap orchestrates one star map generation: input validation,
// time resolution, projection, magnitude filtering, marker scaling, and
// constellation line resolution. The output is a flat set of drawing
// primitives; the renderer makes no decisions of its own.
package starmap

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/arqalite/starmap/internal/catalog"
	"github.com/arqalite/starmap/internal/ephemeris"
	"github.com/arqalite/starmap/internal/localtime"
	"github.com/arqalite/starmap/internal/metrics"
	"github.com/arqalite/starmap/internal/transform"
)

// ErrNoCatalog is returned when no catalog snapshot has been loaded.
var ErrNoCatalog = errors.New("no star catalog loaded")

// UnresolvedStarReferenceError reports a constellation edge naming a star
// the catalog does not contain. This is a data integrity fault in the
// catalog/line-set pair, not a user input error, and fails the whole build.
type UnresolvedStarReferenceError struct {
	Constellation string
	HIP           int
}

func (e *UnresolvedStarReferenceError) Error() string {
	return fmt.Sprintf("constellation %s references unknown star HIP %d", e.Constellation, e.HIP)
}

// Point is one star marker: projected position and marker size
// (area in typographic points squared, matplotlib scatter semantics).
type Point struct {
	Pos  transform.PlanarPoint
	Size float64
}

// Segment is one constellation line in projected coordinates.
type Segment struct {
	A, B transform.PlanarPoint
}

// DrawablePrimitives is the complete drawing instruction set for one map.
// Consumed exactly once by the renderer, never persisted.
type DrawablePrimitives struct {
	Points   []Point
	Segments []Segment
}

// Style carries the presentation parameters the renderer applies verbatim.
type Style struct {
	StarColor          color.RGBA
	BackgroundColor    color.RGBA
	BackgroundAlpha    float64
	ConstellationColor color.RGBA
	ConstellationWidth float64
	DPI                int
}

// Result is a completed build: primitives, style, and observation context.
type Result struct {
	Primitives DrawablePrimitives
	Style      Style
	OutputPath string

	Instant        time.Time // resolved UTC observation instant
	SunUp          bool      // daylight advisory, not an error
	ProjectedStars int       // stars projected (full catalog)
	KeptStars      int       // stars surviving the magnitude filter
}

// Builder produces DrawablePrimitives from BuildParams. Stateless between
// builds; each Build captures one catalog snapshot and writes only its own
// result, so concurrent builds never share mutable state.
type Builder struct {
	resolver *localtime.Resolver
	eph      ephemeris.Provider
	store    *catalog.Store
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(resolver *localtime.Resolver, eph ephemeris.Provider, store *catalog.Store, logger *slog.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		eph:      eph,
		store:    store,
		logger:   logger,
	}
}

// Build runs the full pipeline and returns the drawing instruction set.
// It fails on the first invalid field, an unresolvable time or timezone,
// a missing catalog, or a dangling constellation reference; every failure
// maps to exactly one user-facing message.
func (b *Builder) Build(params BuildParams) (*Result, error) {
	start := time.Now()

	res, err := b.build(params)
	if err != nil {
		metrics.RecordBuild(time.Since(start), outcomeFor(err), 0)
		return nil, err
	}

	duration := time.Since(start)
	metrics.RecordBuild(duration, "success", res.ProjectedStars)

	b.logger.Debug("build complete",
		"instant", res.Instant.Format(time.RFC3339),
		"projected", res.ProjectedStars,
		"kept", res.KeptStars,
		"segments", len(res.Primitives.Segments),
		"duration_ms", duration.Milliseconds(),
	)

	return res, nil
}

func (b *Builder) build(params BuildParams) (*Result, error) {
	in, err := params.Validate()
	if err != nil {
		return nil, err
	}

	instant, err := b.resolver.Resolve(params.LocalDateTime, in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}

	ds := b.store.Get()
	if ds == nil {
		return nil, ErrNoCatalog
	}

	vel, err := b.eph.VelocityOf(ephemeris.Earth, instant)
	if err != nil {
		return nil, fmt.Errorf("ephemeris lookup: %w", err)
	}

	proj := transform.NewProjection(instant, in.Latitude, in.Longitude, vel)

	// Project the entire catalog. Constellation lines are drawn from the
	// full table regardless of the magnitude filter applied to markers.
	coords := make([]transform.Equatorial, len(ds.Stars))
	for i, s := range ds.Stars {
		coords[i] = s.Coord
	}
	positions := proj.Apply(coords)

	points := make([]Point, 0, len(ds.Stars))
	for i, s := range ds.Stars {
		if s.Magnitude > float64(in.MaxMagnitude) {
			continue
		}
		points = append(points, Point{
			Pos:  positions[i],
			Size: markerSize(s.Magnitude, in.StarScaling, in.StarSizeLimit),
		})
	}

	var segments []Segment
	if in.UseConstellations {
		segments = make([]Segment, 0, ds.EdgeCount())
		for _, c := range ds.Constellations {
			for _, e := range c.Edges {
				ia, ok := ds.Index(e.A)
				if !ok {
					return nil, &UnresolvedStarReferenceError{Constellation: c.Name, HIP: e.A}
				}
				ib, ok := ds.Index(e.B)
				if !ok {
					return nil, &UnresolvedStarReferenceError{Constellation: c.Name, HIP: e.B}
				}
				segments = append(segments, Segment{A: positions[ia], B: positions[ib]})
			}
		}
	}

	return &Result{
		Primitives: DrawablePrimitives{Points: points, Segments: segments},
		Style: Style{
			StarColor:          in.StarColor,
			BackgroundColor:    in.BackgroundColor,
			BackgroundAlpha:    in.BackgroundAlpha,
			ConstellationColor: in.ConstellationColor,
			ConstellationWidth: in.ConstellationWidth,
			DPI:                in.DPI,
		},
		OutputPath:     in.OutputPath,
		Instant:        instant,
		SunUp:          ephemeris.SunUp(in.Latitude, in.Longitude, instant),
		ProjectedStars: len(ds.Stars),
		KeptStars:      len(points),
	}, nil
}

// markerSize maps visual magnitude to marker area: scaling * 10^(mag/-2.5),
// clamped above by limit. The exponent inverts the logarithmic magnitude
// scale so a star 5 magnitudes brighter gets a 100× larger marker; the
// ceiling keeps Sirius and Venus-class outliers from dominating the canvas.
// There is no lower bound.
func markerSize(magnitude float64, scaling, limit int) float64 {
	size := float64(scaling) * math.Pow(10, magnitude/-2.5)
	if size > float64(limit) {
		size = float64(limit)
	}
	return size
}

// outcomeFor maps an error to a build outcome label.
func outcomeFor(err error) string {
	var ve *ValidationError
	var ue *UnresolvedStarReferenceError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.Is(err, localtime.ErrInvalidTimeFormat):
		return "invalid_time_format"
	case errors.Is(err, localtime.ErrTimezoneResolution):
		return "timezone_error"
	case errors.Is(err, ErrNoCatalog):
		return "no_catalog"
	case errors.As(err, &ue):
		return "unresolved_star"
	default:
		return "error"
	}
}
