package starmap

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ValidationError reports a user-supplied field that failed validation.
// Builds abort on the first invalid field; nothing downstream runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BuildParams bundles every user-tunable input of one star map build.
// Numeric fields arrive as text, exactly as the input form delivers them;
// Validate coerces and range-checks them.
type BuildParams struct {
	LocalDateTime string // "YYYY-MM-DD HH:MM"
	Latitude      string // degrees, [-90, 90]
	Longitude     string // degrees, [-180, 180]

	UseConstellations  bool
	ConstellationColor string  // "#RRGGBB"
	ConstellationWidth float64 // line width, ≥ 0
	StarColor          string  // "#RRGGBB"
	BackgroundColor    string  // "#RRGGBB"
	BackgroundAlpha    float64 // [0, 1]

	StarScaling   string // integer marker scaling factor
	MaxMagnitude  string // integer, [0, 15]
	StarSizeLimit string // integer upper bound on marker size
	DPI           string // positive integer

	OutputPath string
}

// Inputs holds the coerced form of BuildParams after validation.
type Inputs struct {
	Latitude  float64
	Longitude float64

	UseConstellations  bool
	ConstellationColor color.RGBA
	ConstellationWidth float64
	StarColor          color.RGBA
	BackgroundColor    color.RGBA
	BackgroundAlpha    float64

	StarScaling   int
	MaxMagnitude  int
	StarSizeLimit int
	DPI           int

	OutputPath string
}

// Validate coerces and range-checks every field, returning the first failure
// as a *ValidationError naming the offending field.
func (p BuildParams) Validate() (Inputs, error) {
	var in Inputs

	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Latitude), 64)
	if err != nil {
		return in, &ValidationError{Field: "latitude", Reason: "not a valid number, expected e.g. 12.3456"}
	}
	if lat < -90 || lat > 90 {
		return in, &ValidationError{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	in.Latitude = lat

	lon, err := strconv.ParseFloat(strings.TrimSpace(p.Longitude), 64)
	if err != nil {
		return in, &ValidationError{Field: "longitude", Reason: "not a valid number, expected e.g. 12.3456"}
	}
	if lon < -180 || lon > 180 {
		return in, &ValidationError{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	in.Longitude = lon

	scaling, err := strconv.Atoi(strings.TrimSpace(p.StarScaling))
	if err != nil {
		return in, &ValidationError{Field: "star_scaling", Reason: "not a valid integer"}
	}
	in.StarScaling = scaling

	maxMag, err := strconv.Atoi(strings.TrimSpace(p.MaxMagnitude))
	if err != nil || maxMag < 0 || maxMag > 15 {
		return in, &ValidationError{Field: "max_magnitude", Reason: "must be an integer from 0 to 15"}
	}
	in.MaxMagnitude = maxMag

	dpi, err := strconv.Atoi(strings.TrimSpace(p.DPI))
	if err != nil || dpi < 1 {
		return in, &ValidationError{Field: "dpi", Reason: "must be a positive integer"}
	}
	in.DPI = dpi

	limit, err := strconv.Atoi(strings.TrimSpace(p.StarSizeLimit))
	if err != nil {
		return in, &ValidationError{Field: "star_size_limit", Reason: "not a valid integer"}
	}
	in.StarSizeLimit = limit

	if p.BackgroundAlpha < 0 || p.BackgroundAlpha > 1 {
		return in, &ValidationError{Field: "background_alpha", Reason: "must be between 0 and 1"}
	}
	in.BackgroundAlpha = p.BackgroundAlpha

	if p.ConstellationWidth < 0 {
		return in, &ValidationError{Field: "constellation_width", Reason: "must not be negative"}
	}
	in.ConstellationWidth = p.ConstellationWidth

	in.StarColor, err = parseHexColor(p.StarColor)
	if err != nil {
		return in, &ValidationError{Field: "star_color", Reason: err.Error()}
	}
	in.BackgroundColor, err = parseHexColor(p.BackgroundColor)
	if err != nil {
		return in, &ValidationError{Field: "background_color", Reason: err.Error()}
	}
	in.ConstellationColor, err = parseHexColor(p.ConstellationColor)
	if err != nil {
		return in, &ValidationError{Field: "constellation_color", Reason: err.Error()}
	}

	if strings.TrimSpace(p.OutputPath) == "" {
		return in, &ValidationError{Field: "output_path", Reason: "must not be empty"}
	}
	in.OutputPath = p.OutputPath

	in.UseConstellations = p.UseConstellations

	return in, nil
}

// parseHexColor parses a "#RRGGBB" color string into an opaque RGBA.
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("expected #RRGGBB, got %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("expected #RRGGBB, got %q", s)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
