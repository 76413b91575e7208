// Package ephemeris supplies Earth and Sun position vectors for a given
// instant. The analytic model implements the low-precision solar position
// series from Meeus, "Astronomical Algorithms", Ch. 25 — accurate to about
// 0.01°, which is far below the resolution of a rendered star map.
package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/arqalite/starmap/internal/transform"
)

// Body identifies a solar-system body the provider can locate.
type Body int

const (
	Earth Body = iota
	Sun
)

// String returns the body name.
func (b Body) String() string {
	switch b {
	case Earth:
		return "earth"
	case Sun:
		return "sun"
	default:
		return "unknown"
	}
}

// Provider supplies position and velocity vectors for solar-system bodies.
// Positions are in the equatorial frame, in AU: heliocentric for Earth,
// geocentric for the Sun. Velocities are in AU/day.
type Provider interface {
	PositionOf(b Body, t time.Time) (transform.Vec3, error)
	VelocityOf(b Body, t time.Time) (transform.Vec3, error)
}

// Analytic is the built-in ephemeris model. Stateless; safe for concurrent use.
type Analytic struct{}

// NewAnalytic returns the built-in analytic ephemeris.
func NewAnalytic() *Analytic {
	return &Analytic{}
}

// PositionOf returns the body's position at t in AU.
func (a *Analytic) PositionOf(b Body, t time.Time) (transform.Vec3, error) {
	switch b {
	case Sun:
		return checkVec(sunGeocentric(t))
	case Earth:
		// Heliocentric Earth is the geocentric Sun reflected through the origin.
		s := sunGeocentric(t)
		return checkVec(s.Scale(-1))
	default:
		return transform.Vec3{}, fmt.Errorf("ephemeris: unsupported body %d", b)
	}
}

// VelocityOf returns the body's velocity at t in AU/day, computed by central
// difference over a half-day on either side of t.
func (a *Analytic) VelocityOf(b Body, t time.Time) (transform.Vec3, error) {
	const h = 12 * time.Hour
	p0, err := a.PositionOf(b, t.Add(-h))
	if err != nil {
		return transform.Vec3{}, err
	}
	p1, err := a.PositionOf(b, t.Add(h))
	if err != nil {
		return transform.Vec3{}, err
	}
	// The samples are one day apart, so the difference is already AU/day.
	return checkVec(p1.Add(p0.Scale(-1)))
}

// sunGeocentric returns the Sun's geocentric equatorial position at t in AU.
func sunGeocentric(t time.Time) transform.Vec3 {
	// Days from J2000.0.
	n := transform.JulianDate(t.UTC()) - 2451545.0

	deg := math.Pi / 180.0

	// Mean longitude and mean anomaly of the Sun (degrees).
	L := math.Mod(280.460+0.9856474*n, 360)
	g := math.Mod(357.528+0.9856003*n, 360) * deg

	// Ecliptic longitude with the equation-of-center correction.
	lambda := (L + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)) * deg

	// Distance in AU and obliquity of the ecliptic.
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
	eps := (23.439 - 0.0000004*n) * deg

	sinL := math.Sin(lambda)
	return transform.Vec3{
		X: r * math.Cos(lambda),
		Y: r * sinL * math.Cos(eps),
		Z: r * sinL * math.Sin(eps),
	}
}

// checkVec rejects NaN/Inf components so a model fault surfaces as an error
// instead of propagating through the projection as garbage coordinates.
func checkVec(v transform.Vec3) (transform.Vec3, error) {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return transform.Vec3{}, fmt.Errorf("ephemeris: non-finite output (%v, %v, %v)", v.X, v.Y, v.Z)
		}
	}
	return v, nil
}
