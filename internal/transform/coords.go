package transform

import (
	"math"
	"time"
)

// Equatorial is a celestial direction in the equatorial frame:
// right ascension and declination, both in degrees.
type Equatorial struct {
	RADeg  float64 // [0, 360)
	DecDeg float64 // [-90, 90]
}

// Vec3 is a direction vector in the equatorial frame (x toward the vernal
// equinox, z toward the celestial north pole).
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Unit returns v scaled to length 1. The zero vector is returned unchanged.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec3{v.X / n, v.Y / n, v.Z / n}
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// UnitVector converts an equatorial coordinate to a unit direction vector.
func (e Equatorial) UnitVector() Vec3 {
	ra := e.RADeg * math.Pi / 180.0
	dec := e.DecDeg * math.Pi / 180.0
	cosDec := math.Cos(dec)
	return Vec3{
		X: cosDec * math.Cos(ra),
		Y: cosDec * math.Sin(ra),
		Z: math.Sin(dec),
	}
}

// ZenithAt returns the topocentric zenith direction for an observer at the
// given geodetic latitude/longitude (degrees) and UTC time. The zenith right
// ascension equals the local sidereal time; its declination equals the
// geodetic latitude.
func ZenithAt(t time.Time, latDeg, lonDeg float64) Equatorial {
	lst := LocalSiderealTime(t, lonDeg)
	return Equatorial{
		RADeg:  lst * 180.0 / math.Pi,
		DecDeg: latDeg,
	}
}
