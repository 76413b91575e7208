package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ParseConstellations reads Stellarium constellation line data
// (constellationship.fab) from r. Each record is
//
//	NAME COUNT hip hip hip hip ...
//
// where COUNT is the number of edges and each consecutive pair of HIP ids
// forms one edge. Comment lines start with '#'. Malformed records are
// skipped with a warning log.
func ParseConstellations(r io.Reader, logger *slog.Logger) ([]Constellation, error) {
	scanner := bufio.NewScanner(r)

	var constellations []Constellation
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			logger.Warn("skipping malformed constellation record", "line", line)
			continue
		}

		name := fields[0]
		count, err := strconv.Atoi(fields[1])
		if err != nil || count < 1 {
			logger.Warn("skipping constellation with invalid edge count", "line", line, "name", name, "count", fields[1])
			continue
		}

		ids := fields[2:]
		if len(ids) < 2*count {
			logger.Warn("skipping constellation with truncated edge list",
				"line", line, "name", name, "want_ids", 2*count, "got_ids", len(ids))
			continue
		}

		edges := make([]ConstellationEdge, 0, count)
		ok := true
		for i := 0; i < count; i++ {
			a, errA := strconv.Atoi(ids[2*i])
			b, errB := strconv.Atoi(ids[2*i+1])
			if errA != nil || errB != nil {
				logger.Warn("skipping constellation with invalid HIP id",
					"line", line, "name", name, "edge", i)
				ok = false
				break
			}
			edges = append(edges, ConstellationEdge{A: a, B: b})
		}
		if !ok {
			continue
		}

		constellations = append(constellations, Constellation{Name: name, Edges: edges})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading constellation data: %w", err)
	}

	return constellations, nil
}
