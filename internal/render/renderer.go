// Package render draws DrawablePrimitives onto a square raster canvas and
// writes the result as a PNG. It applies style verbatim and makes no
// filtering or scaling decisions; everything it draws was decided upstream.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/arqalite/starmap/internal/starmap"
	"github.com/arqalite/starmap/internal/transform"
)

// figureInches is the canvas edge length in inches. Pixel dimensions are
// figureInches × DPI, so DPI alone controls output resolution.
const figureInches = 10.0

// RenderWriteError reports a failure to write the output image. The target
// path is never left with a partial file.
type RenderWriteError struct {
	Path string
	Err  error
}

func (e *RenderWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *RenderWriteError) Unwrap() error {
	return e.Err
}

// Renderer rasterizes star map primitives. Stateless; safe for concurrent use.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderBytes draws the primitives and returns the encoded PNG instead of
// writing a file. Used by the HTTP API, which streams the image.
func (r *Renderer) RenderBytes(prims starmap.DrawablePrimitives, style starmap.Style) ([]byte, error) {
	dc := r.draw(prims, style)
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws the primitives at the style's DPI and writes a PNG to path.
// The projected [-1, 1] square maps onto the full canvas with north up.
// The image is written to a temporary file in the target directory and
// renamed into place, so a failed render leaves no partial output.
func (r *Renderer) Render(prims starmap.DrawablePrimitives, style starmap.Style, path string) error {
	return r.write(r.draw(prims, style), path)
}

func (r *Renderer) draw(prims starmap.DrawablePrimitives, style starmap.Style) *gg.Context {
	px := int(math.Round(figureInches * float64(style.DPI)))
	dc := gg.NewContext(px, px)

	bg := style.BackgroundColor
	dc.SetRGBA(
		float64(bg.R)/255,
		float64(bg.G)/255,
		float64(bg.B)/255,
		style.BackgroundAlpha,
	)
	dc.Clear()

	// Marker sizes are areas in points²; widths are in points.
	// One typographic point is 1/72 inch.
	ptToPx := float64(style.DPI) / 72.0

	sc := style.StarColor
	dc.SetRGBA(float64(sc.R)/255, float64(sc.G)/255, float64(sc.B)/255, 1)
	for _, p := range prims.Points {
		x, y, ok := r.toCanvas(p.Pos, px)
		if !ok || p.Size <= 0 {
			continue
		}
		radius := math.Sqrt(p.Size/math.Pi) * ptToPx
		dc.DrawCircle(x, y, radius)
	}
	dc.Fill()

	if len(prims.Segments) > 0 && style.ConstellationWidth > 0 {
		cc := style.ConstellationColor
		dc.SetRGBA(float64(cc.R)/255, float64(cc.G)/255, float64(cc.B)/255, 1)
		dc.SetLineWidth(style.ConstellationWidth * ptToPx)
		for _, s := range prims.Segments {
			ax, ay, okA := r.toCanvas(s.A, px)
			bx, by, okB := r.toCanvas(s.B, px)
			if !okA || !okB {
				continue
			}
			dc.DrawLine(ax, ay, bx, by)
		}
		dc.Stroke()
	}

	return dc
}

// toCanvas maps a projected point to pixel coordinates. Projected y grows
// toward celestial north; raster y grows downward, so the axis flips.
// Non-finite coordinates (directions at or near the projection antipode)
// are reported as not drawable.
func (r *Renderer) toCanvas(p transform.PlanarPoint, px int) (float64, float64, bool) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return 0, 0, false
	}
	half := float64(px) / 2
	return half + p.X*half, half - p.Y*half, true
}

func (r *Renderer) write(dc *gg.Context, path string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".starmap-*.png")
	if err != nil {
		return &RenderWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if err := dc.EncodePNG(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &RenderWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &RenderWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &RenderWriteError{Path: path, Err: err}
	}

	r.logger.Debug("image written", "path", path, "pixels", dc.Width())
	return nil
}
