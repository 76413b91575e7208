package starmap

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/arqalite/starmap/internal/catalog"
	"github.com/arqalite/starmap/internal/ephemeris"
	"github.com/arqalite/starmap/internal/localtime"
	"github.com/arqalite/starmap/internal/transform"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	resolverOnce sync.Once
	sharedRes    *localtime.Resolver
	resolverErr  error
)

func testResolver(t *testing.T) *localtime.Resolver {
	t.Helper()
	resolverOnce.Do(func() {
		sharedRes, resolverErr = localtime.NewResolver()
	})
	if resolverErr != nil {
		t.Fatalf("NewResolver: %v", resolverErr)
	}
	return sharedRes
}

// testDataset is a four-star catalog with one constellation. The mag 14 star
// is dimmer than any filter used in the tests but is still a line endpoint.
func testDataset() *catalog.Dataset {
	stars := []catalog.Star{
		{HIP: 101, Coord: transform.Equatorial{RADeg: 101.2872, DecDeg: -16.7161}, Magnitude: -1.44},
		{HIP: 102, Coord: transform.Equatorial{RADeg: 279.2347, DecDeg: 38.7837}, Magnitude: 1.0},
		{HIP: 103, Coord: transform.Equatorial{RADeg: 37.9546, DecDeg: 89.2641}, Magnitude: 10.0},
		{HIP: 104, Coord: transform.Equatorial{RADeg: 210.5, DecDeg: 12.25}, Magnitude: 14.0},
	}
	cons := []catalog.Constellation{
		{Name: "Tst", Edges: []catalog.ConstellationEdge{
			{A: 101, B: 102},
			{A: 102, B: 104},
		}},
	}
	return catalog.NewDataset("test", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), stars, cons)
}

func testBuilder(t *testing.T, ds *catalog.Dataset) *Builder {
	t.Helper()
	store := catalog.NewStore()
	if ds != nil {
		store.Set(ds)
	}
	return NewBuilder(testResolver(t), ephemeris.NewAnalytic(), store, discardLogger)
}

func TestBuild(t *testing.T) {
	b := testBuilder(t, testDataset())

	res, err := b.Build(validParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if res.ProjectedStars != 4 {
		t.Errorf("ProjectedStars = %d, want 4 (full catalog)", res.ProjectedStars)
	}
	// Magnitude filter is inclusive: mag 10.0 survives max_magnitude 10,
	// mag 14.0 does not.
	if res.KeptStars != 3 || len(res.Primitives.Points) != 3 {
		t.Errorf("kept %d stars (%d points), want 3", res.KeptStars, len(res.Primitives.Points))
	}
	// Both edges survive even though one endpoint fails the marker filter:
	// lines are drawn from the full catalog.
	if len(res.Primitives.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(res.Primitives.Segments))
	}

	// Berlin, 22:30 CET on 2024-01-15 is 21:30 UTC.
	want := time.Date(2024, 1, 15, 21, 30, 0, 0, time.UTC)
	if !res.Instant.Equal(want) {
		t.Errorf("Instant = %v, want %v", res.Instant, want)
	}
	if res.SunUp {
		t.Error("SunUp = true for Berlin at 21:30 UTC in January")
	}
	if res.OutputPath != "starmap.png" {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}
	if res.Style.DPI != 500 {
		t.Errorf("Style.DPI = %d, want 500", res.Style.DPI)
	}
}

func TestBuildWithoutConstellations(t *testing.T) {
	b := testBuilder(t, testDataset())

	p := validParams()
	p.UseConstellations = false

	res, err := b.Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Primitives.Segments) != 0 {
		t.Errorf("got %d segments with constellations disabled", len(res.Primitives.Segments))
	}
}

func TestBuildValidationFailsFirst(t *testing.T) {
	// Validation runs before anything else; a builder with no catalog still
	// reports the field error, not ErrNoCatalog.
	b := testBuilder(t, nil)

	p := validParams()
	p.Latitude = "abc"

	_, err := b.Build(p)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if ve.Field != "latitude" {
		t.Errorf("field = %q, want latitude", ve.Field)
	}
}

func TestBuildInvalidTimeFormat(t *testing.T) {
	b := testBuilder(t, testDataset())

	p := validParams()
	p.LocalDateTime = "15.01.2024 22:30"

	_, err := b.Build(p)
	if !errors.Is(err, localtime.ErrInvalidTimeFormat) {
		t.Errorf("err = %v, want ErrInvalidTimeFormat", err)
	}
}

func TestBuildNoCatalog(t *testing.T) {
	b := testBuilder(t, nil)

	_, err := b.Build(validParams())
	if !errors.Is(err, ErrNoCatalog) {
		t.Errorf("err = %v, want ErrNoCatalog", err)
	}
}

func TestBuildUnresolvedStarReference(t *testing.T) {
	stars := []catalog.Star{
		{HIP: 101, Coord: transform.Equatorial{RADeg: 10, DecDeg: 20}, Magnitude: 2},
	}
	cons := []catalog.Constellation{
		{Name: "Bad", Edges: []catalog.ConstellationEdge{{A: 101, B: 999}}},
	}
	ds := catalog.NewDataset("test", time.Now(), stars, cons)
	b := testBuilder(t, ds)

	_, err := b.Build(validParams())
	var ue *UnresolvedStarReferenceError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnresolvedStarReferenceError", err)
	}
	if ue.Constellation != "Bad" || ue.HIP != 999 {
		t.Errorf("got constellation %q HIP %d, want Bad 999", ue.Constellation, ue.HIP)
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := testBuilder(t, testDataset())

	a, err := b.Build(validParams())
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.Build(validParams())
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Primitives.Points) != len(c.Primitives.Points) {
		t.Fatalf("point counts differ: %d vs %d", len(a.Primitives.Points), len(c.Primitives.Points))
	}
	for i := range a.Primitives.Points {
		if a.Primitives.Points[i] != c.Primitives.Points[i] {
			t.Errorf("point %d differs between identical builds", i)
		}
	}
	for i := range a.Primitives.Segments {
		if a.Primitives.Segments[i] != c.Primitives.Segments[i] {
			t.Errorf("segment %d differs between identical builds", i)
		}
	}
}

func TestBuildFilterMonotonic(t *testing.T) {
	b := testBuilder(t, testDataset())

	var prev int
	for _, maxMag := range []string{"0", "5", "10", "15"} {
		p := validParams()
		p.MaxMagnitude = maxMag
		res, err := b.Build(p)
		if err != nil {
			t.Fatalf("Build(max_magnitude=%s): %v", maxMag, err)
		}
		if res.KeptStars < prev {
			t.Errorf("max_magnitude=%s kept %d stars, fewer than looser filter's %d", maxMag, res.KeptStars, prev)
		}
		prev = res.KeptStars
	}
}

func TestMarkerSize(t *testing.T) {
	// scaling * 10^(mag/-2.5): a star 5 magnitudes brighter gets a 100×
	// larger marker.
	got := markerSize(1.0, 100, 400)
	want := 100 * math.Pow(10, 1.0/-2.5)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("markerSize(1.0, 100, 400) = %v, want %v", got, want)
	}

	ratio := markerSize(0, 100, 1000000) / markerSize(5, 100, 1000000)
	if math.Abs(ratio-100) > 1e-9 {
		t.Errorf("5-magnitude brightness ratio = %v, want 100", ratio)
	}

	// Bright outliers clamp to the limit.
	if got := markerSize(-1.44, 1000, 400); got != 400 {
		t.Errorf("markerSize(-1.44, 1000, 400) = %v, want clamped to 400", got)
	}

	// Dim stars have no lower bound.
	if got := markerSize(14, 100, 400); got <= 0 || got > 0.001 {
		t.Errorf("markerSize(14, 100, 400) = %v, want tiny positive", got)
	}

	// Monotonic: brighter (lower magnitude) never yields a smaller marker.
	prev := math.Inf(1)
	for mag := -2.0; mag <= 15; mag += 0.5 {
		s := markerSize(mag, 100, 400)
		if s > prev {
			t.Errorf("markerSize increased from mag %v to %v", mag-0.5, mag)
		}
		prev = s
	}
}
