package transform

import (
	"math"
	"testing"
	"time"
)

// TestJulianDate verifies the Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Meeus Example 7.a: 1957 October 4.81, Sputnik 1 launch day.
			name:     "Meeus example 7.a",
			time:     time.Date(1957, 10, 4, 19, 26, 24, 0, time.UTC),
			expected: 2436116.31,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("JulianDate(%v) = %.8f, want %.8f", tt.time, got, tt.expected)
			}
		})
	}
}

// TestGMST verifies GMST against Vallado Example 3-5:
// April 6, 2004, 07:51:28.386 UTC → GMST 312.8098°.
func TestGMST(t *testing.T) {
	ts := time.Date(2004, 4, 6, 7, 51, 28, 386000000, time.UTC)
	got := GMST(ts) * 180.0 / math.Pi

	want := 312.8098
	if math.Abs(got-want) > 0.01 {
		t.Errorf("GMST = %.4f deg, want %.4f deg", got, want)
	}
}

func TestGMSTRange(t *testing.T) {
	// GMST must stay in [0, 2π) across a sweep of dates, including dates
	// before J2000 where the unnormalized polynomial is negative.
	for _, ts := range []time.Time{
		time.Date(1980, 6, 1, 3, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2050, 7, 4, 18, 30, 0, 0, time.UTC),
	} {
		got := GMST(ts)
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("GMST(%v) = %v, outside [0, 2π)", ts, got)
		}
	}
}

func TestLocalSiderealTime(t *testing.T) {
	ts := time.Date(2024, 3, 20, 22, 0, 0, 0, time.UTC)

	gmst := GMST(ts)

	// At Greenwich, LST equals GMST.
	if got := LocalSiderealTime(ts, 0); math.Abs(got-gmst) > 1e-12 {
		t.Errorf("LST at lon 0 = %v, want GMST %v", got, gmst)
	}

	// 90° east adds 6 sidereal hours (π/2), modulo a full turn.
	east := LocalSiderealTime(ts, 90)
	diff := math.Mod(east-gmst+2*math.Pi, 2*math.Pi)
	if math.Abs(diff-math.Pi/2) > 1e-12 {
		t.Errorf("LST offset for lon 90 = %v rad, want π/2", diff)
	}

	// Result is normalized to [0, 2π) even for western longitudes.
	west := LocalSiderealTime(ts, -179.9)
	if west < 0 || west >= 2*math.Pi {
		t.Errorf("LST at lon -179.9 = %v, outside [0, 2π)", west)
	}
}
