// Package render draws feature collections as static SVG previews so a grid
// can be eyeballed before it is handed to downstream consumers.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/drivebylabs/stratgrid/pkg/geojson"
)

// SVGOption configures [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width  float64
	height float64
	stroke string
	fill   string
	labels bool
}

// WithSize sets the viewport dimensions in pixels. Non-positive values keep
// the defaults.
func WithSize(width, height float64) SVGOption {
	return func(r *svgRenderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// WithStroke sets the polygon outline color.
func WithStroke(color string) SVGOption { return func(r *svgRenderer) { r.stroke = color } }

// WithFill sets the polygon fill color.
func WithFill(color string) SVGOption { return func(r *svgRenderer) { r.fill = color } }

// WithLabels draws each feature's stratum_id at its polygon centroid.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// SVG renders every polygon feature in fc scaled into the viewport,
// preserving aspect ratio and flipping the y axis so north is up. It returns
// the complete SVG document. Features without Polygon geometry are skipped.
func SVG(fc *geojson.FeatureCollection, opts ...SVGOption) []byte {
	r := svgRenderer{width: 800, height: 600, stroke: "#1f6f8b", fill: "none"}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := dataBounds(fc)
	scaleX := r.width / (maxX - minX)
	scaleY := r.height / (maxY - minY)
	scale := math.Min(scaleX, scaleY)

	px := func(lon float64) float64 { return (lon - minX) * scale }
	py := func(lat float64) float64 { return r.height - (lat-minY)*scale }

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		r.width, r.height, r.width, r.height)

	for _, f := range fc.Features {
		if f.Geometry.Type != "Polygon" || len(f.Geometry.Coordinates) == 0 {
			continue
		}
		ring := f.Geometry.Coordinates[0]

		buf.WriteString(`  <polygon points="`)
		for i, pos := range ring {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%.2f,%.2f", px(pos[0]), py(pos[1]))
		}
		fmt.Fprintf(&buf, `" fill="%s" stroke="%s" stroke-width="1"/>`+"\n", r.fill, r.stroke)

		if r.labels {
			if id, ok := f.StratumID(); ok {
				cx, cy := centroid(ring)
				fmt.Fprintf(&buf, `  <text x="%.2f" y="%.2f" font-size="10" text-anchor="middle" dominant-baseline="middle">%d</text>`+"\n",
					px(cx), py(cy), id)
			}
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// dataBounds computes the extent of all polygon rings. An empty collection
// gets a unit extent so the scale stays finite.
func dataBounds(fc *geojson.FeatureCollection) (minX, minY, maxX, maxY float64) {
	first := true
	for _, f := range fc.Features {
		if f.Geometry.Type != "Polygon" {
			continue
		}
		for _, ring := range f.Geometry.Coordinates {
			for _, pos := range ring {
				if first {
					minX, maxX, minY, maxY = pos[0], pos[0], pos[1], pos[1]
					first = false
					continue
				}
				minX = math.Min(minX, pos[0])
				maxX = math.Max(maxX, pos[0])
				minY = math.Min(minY, pos[1])
				maxY = math.Max(maxY, pos[1])
			}
		}
	}
	if first || maxX == minX || maxY == minY {
		return 0, 0, 1, 1
	}
	return minX, minY, maxX, maxY
}

func centroid(ring []geojson.Position) (x, y float64) {
	// Skip the closing position so corners are not double counted.
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n == 0 {
		return 0, 0
	}
	for _, pos := range ring[:n] {
		x += pos[0]
		y += pos[1]
	}
	return x / float64(n), y / float64(n)
}
