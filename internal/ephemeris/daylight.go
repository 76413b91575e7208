package ephemeris

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// SunUp reports whether the sun is above the horizon at the given location
// and UTC instant. Inside polar day the sun never sets and the result is
// true for the whole date; inside polar night it is false.
func SunUp(latDeg, lonDeg float64, t time.Time) bool {
	t = t.UTC()
	rise, set := sunrise.SunriseSunset(latDeg, lonDeg, t.Year(), t.Month(), t.Day())

	if rise.IsZero() && set.IsZero() {
		// No rise/set event this date: polar day or polar night. Polar day
		// holds when the observer's hemisphere tilts toward the sun, i.e.
		// the solar declination has the observer's latitude sign.
		return (latDeg >= 0) == (sunGeocentric(t).Z >= 0)
	}

	return !t.Before(rise) && t.Before(set)
}
