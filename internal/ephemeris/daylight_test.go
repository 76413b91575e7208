package ephemeris

import (
	"testing"
	"time"
)

func TestSunUp(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		time time.Time
		want bool
	}{
		{
			name: "equator local noon",
			lat:  0, lon: 0,
			time: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "equator local midnight",
			lat:  0, lon: 0,
			time: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "berlin summer evening",
			lat:  52.52, lon: 13.405,
			time: time.Date(2024, 6, 21, 18, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "berlin winter evening",
			lat:  52.52, lon: 13.405,
			time: time.Date(2024, 12, 21, 18, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "svalbard polar day",
			lat:  78.22, lon: 15.65,
			time: time.Date(2024, 6, 21, 1, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "svalbard polar night",
			lat:  78.22, lon: 15.65,
			time: time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "antarctic polar day",
			lat:  -80, lon: 0,
			time: time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SunUp(tt.lat, tt.lon, tt.time); got != tt.want {
				t.Errorf("SunUp(%v, %v, %v) = %v, want %v", tt.lat, tt.lon, tt.time, got, tt.want)
			}
		})
	}
}
