package catalog

import (
	"time"

	"github.com/arqalite/starmap/internal/transform"
)

// Star is a single catalog row: Hipparcos identifier, equatorial position
// at the catalog epoch, and visual magnitude.
type Star struct {
	HIP       int
	Coord     transform.Equatorial
	Magnitude float64
}

// ConstellationEdge joins two catalog stars by HIP identifier.
type ConstellationEdge struct {
	A, B int
}

// Constellation is a named group of edges. Grouping is preserved only so a
// renderer could style figures individually; edge order carries no meaning.
type Constellation struct {
	Name  string
	Edges []ConstellationEdge
}

// Dataset is one immutable catalog snapshot: the star table, the
// constellation line set, and a HIP→index lookup over Stars.
type Dataset struct {
	Source         string
	FetchedAt      time.Time
	Stars          []Star
	Constellations []Constellation

	byHIP map[int]int
}

// NewDataset builds a Dataset and its lookup index.
func NewDataset(source string, fetchedAt time.Time, stars []Star, constellations []Constellation) *Dataset {
	byHIP := make(map[int]int, len(stars))
	for i, s := range stars {
		byHIP[s.HIP] = i
	}
	return &Dataset{
		Source:         source,
		FetchedAt:      fetchedAt,
		Stars:          stars,
		Constellations: constellations,
		byHIP:          byHIP,
	}
}

// Index returns the position of the star with the given HIP identifier in
// Stars, or false if the catalog has no such star.
func (d *Dataset) Index(hip int) (int, bool) {
	i, ok := d.byHIP[hip]
	return i, ok
}

// EdgeCount returns the total number of constellation edges.
func (d *Dataset) EdgeCount() int {
	var n int
	for _, c := range d.Constellations {
		n += len(c.Edges)
	}
	return n
}
