// Package transform provides the celestial coordinate math behind the star
// map: sidereal time, the observer's zenith direction, apparent-direction
// correction, and the stereographic projection onto the image plane.
//
// Frame conventions follow Vallado, "Fundamentals of Astrodynamics and
// Applications", Ch. 3: equatorial frame with x toward the vernal equinox
// and z toward the celestial north pole. Angles in degrees at the API
// boundary, radians internally.
package transform

import (
	"math"
	"time"
)

// cAUPerDay is the speed of light in astronomical units per day.
const cAUPerDay = 173.144632674

// Projection maps equatorial coordinates onto a plane through a stereographic
// (azimuthal, conformal) projection centered on the observer's apparent
// zenith. The zenith projects to (0, 0) and the horizon circle (90° from the
// zenith) to radius 1; directions below the horizon land outside the unit
// circle, and the nadir maps to infinity.
//
// Immutable after construction; safe for concurrent use.
type Projection struct {
	center Vec3 // apparent zenith, unit length
	east   Vec3 // tangent-plane basis, unit length
	north  Vec3
	beta   Vec3 // observer velocity / c, for annual aberration
}

// PlanarPoint is a projected position in the image plane. X grows toward the
// local east, Y toward the local north; the visible hemisphere occupies the
// unit disc.
type PlanarPoint struct {
	X, Y float64
}

// NewProjection builds a stereographic projection for an observer at the given
// geodetic latitude/longitude (degrees) and UTC instant. earthVelAU is the
// observer's barycentric velocity in AU/day, used to correct every direction
// (the zenith center and each applied coordinate alike) for annual aberration.
func NewProjection(t time.Time, latDeg, lonDeg float64, earthVelAU Vec3) *Projection {
	beta := earthVelAU.Scale(1.0 / cAUPerDay)

	zenith := ZenithAt(t, latDeg, lonDeg)
	center := apparent(zenith.UnitVector(), beta)

	ra0 := math.Atan2(center.Y, center.X)
	dec0 := math.Asin(center.Z)

	// Orthonormal tangent basis at the center direction.
	east := Vec3{-math.Sin(ra0), math.Cos(ra0), 0}
	north := Vec3{
		X: -math.Sin(dec0) * math.Cos(ra0),
		Y: -math.Sin(dec0) * math.Sin(ra0),
		Z: math.Cos(dec0),
	}

	return &Projection{center: center, east: east, north: north, beta: beta}
}

// apparent applies the first-order annual aberration correction to a catalog
// direction: p' = unit(p + v/c). For Earth |v/c| ≈ 1e-4, a deflection of at
// most ~20.5 arcseconds.
func apparent(p, beta Vec3) Vec3 {
	return p.Add(beta).Unit()
}

// Apply projects a batch of equatorial coordinates. The result at index i is
// identical to projecting coords[i] alone; there is no coupling between
// coordinates.
func (p *Projection) Apply(coords []Equatorial) []PlanarPoint {
	out := make([]PlanarPoint, len(coords))
	for i, c := range coords {
		out[i] = p.ApplyOne(c)
	}
	return out
}

// ApplyOne projects a single equatorial coordinate.
//
// With w the component toward the projection center and (u, v) the east/north
// tangent-plane components, the stereographic image is (u, v) / (1 + w):
// a direction at angular distance θ from the center lands at radius
// tan(θ/2), so the horizon maps to the unit circle. The exact antipode of
// the center (w = -1) projects to infinity.
func (p *Projection) ApplyOne(c Equatorial) PlanarPoint {
	d := apparent(c.UnitVector(), p.beta)

	w := d.Dot(p.center)
	u := d.Dot(p.east)
	v := d.Dot(p.north)

	if 1+w == 0 {
		// Exact antipode of the center: the projection has no finite image.
		return PlanarPoint{X: math.Inf(1), Y: math.Inf(1)}
	}

	return PlanarPoint{
		X: u / (1 + w),
		Y: v / (1 + w),
	}
}
