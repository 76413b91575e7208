package ephemeris

import (
	"math"
	"testing"
	"time"
)

func TestSunDistanceNearOneAU(t *testing.T) {
	a := NewAnalytic()

	// Perihelion in early January (~0.983 AU), aphelion in early July
	// (~1.017 AU); every sample must stay inside that envelope.
	for _, ts := range []time.Time{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 15, 6, 0, 0, 0, time.UTC),
	} {
		pos, err := a.PositionOf(Sun, ts)
		if err != nil {
			t.Fatalf("PositionOf(Sun, %v): %v", ts, err)
		}
		if r := pos.Norm(); r < 0.982 || r > 1.018 {
			t.Errorf("sun distance at %v = %.5f AU, want within [0.982, 1.018]", ts, r)
		}
	}
}

func TestSunPositionAtEquinox(t *testing.T) {
	a := NewAnalytic()

	// Around the March equinox the sun sits near the vernal equinox
	// direction: ecliptic longitude ~0, so x dominates and z is small.
	pos, err := a.PositionOf(Sun, time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	if pos.X < 0.9 {
		t.Errorf("sun x at equinox = %.4f, want near 1", pos.X)
	}
	if math.Abs(pos.Z) > 0.01 {
		t.Errorf("sun z at equinox = %.4f, want near 0", pos.Z)
	}
}

func TestEarthOppositeSun(t *testing.T) {
	a := NewAnalytic()
	ts := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

	sun, err := a.PositionOf(Sun, ts)
	if err != nil {
		t.Fatal(err)
	}
	earth, err := a.PositionOf(Earth, ts)
	if err != nil {
		t.Fatal(err)
	}

	if earth != sun.Scale(-1) {
		t.Errorf("earth %+v is not the reflection of sun %+v", earth, sun)
	}
}

func TestEarthVelocityMagnitude(t *testing.T) {
	a := NewAnalytic()

	// Earth's orbital speed is ~29.8 km/s, about 0.0172 AU/day.
	for _, ts := range []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
	} {
		vel, err := a.VelocityOf(Earth, ts)
		if err != nil {
			t.Fatalf("VelocityOf(Earth, %v): %v", ts, err)
		}
		if v := vel.Norm(); v < 0.016 || v > 0.019 {
			t.Errorf("earth speed at %v = %.5f AU/day, want ~0.0172", ts, v)
		}
	}
}

func TestUnsupportedBody(t *testing.T) {
	a := NewAnalytic()
	ts := time.Now()

	if _, err := a.PositionOf(Body(99), ts); err == nil {
		t.Error("PositionOf(unknown body) returned nil error")
	}
	if _, err := a.VelocityOf(Body(99), ts); err == nil {
		t.Error("VelocityOf(unknown body) returned nil error")
	}
}

func TestBodyString(t *testing.T) {
	if got := Earth.String(); got != "earth" {
		t.Errorf("Earth.String() = %q", got)
	}
	if got := Sun.String(); got != "sun" {
		t.Errorf("Sun.String() = %q", got)
	}
	if got := Body(99).String(); got != "unknown" {
		t.Errorf("Body(99).String() = %q", got)
	}
}
