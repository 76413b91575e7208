package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/arqalite/starmap/internal/transform"
)

// Field positions in a pipe-delimited Hipparcos main catalogue record
// (hip_main.dat as distributed by VizieR/CDS).
const (
	hipFieldID    = 1 // HIP number
	hipFieldVmag  = 5 // visual magnitude
	hipFieldRADeg = 8 // right ascension, ICRS degrees
	hipFieldDEDeg = 9 // declination, ICRS degrees
	hipMinFields  = 10
)

// ParseStars reads Hipparcos main-catalogue records from r.
// Records with missing astrometry or magnitude are skipped with a warning
// log — a few thousand catalog entries carry no usable solution and the
// original dataset drops them before plotting.
func ParseStars(r io.Reader, logger *slog.Logger) ([]Star, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var stars []Star
	var skipped int
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "|")
		if len(fields) < hipMinFields {
			logger.Warn("skipping malformed catalog record", "line", line, "fields", len(fields))
			skipped++
			continue
		}

		hip, err := strconv.Atoi(strings.TrimSpace(fields[hipFieldID]))
		if err != nil {
			logger.Warn("skipping catalog record with invalid HIP id", "line", line, "hip", fields[hipFieldID])
			skipped++
			continue
		}

		ra, err1 := parseField(fields[hipFieldRADeg])
		dec, err2 := parseField(fields[hipFieldDEDeg])
		mag, err3 := parseField(fields[hipFieldVmag])
		if err1 != nil || err2 != nil || err3 != nil {
			// No astrometric solution or no magnitude; nothing to plot.
			skipped++
			continue
		}

		stars = append(stars, Star{
			HIP:       hip,
			Coord:     transform.Equatorial{RADeg: ra, DecDeg: dec},
			Magnitude: mag,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading star catalog: %w", err)
	}

	if skipped > 0 {
		logger.Info("star catalog parsed", "stars", len(stars), "skipped", skipped)
	}

	return stars, nil
}

func parseField(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	return strconv.ParseFloat(s, 64)
}
