// Package grid implements the square-grid stratification core: it tiles a
// bounding box with equal-sized square cells and labels each cell with a
// sequential stratum id.
//
// Build is a pure function. Given the same bounding box and cell size it
// always emits the same ordered cell sequence, so concurrent callers need no
// coordination and retrying a failed call with the same input cannot
// succeed.
package grid

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
)

// DefaultMaxCells is the default ceiling on rows*columns. Build refuses to
// materialize larger grids so a typo'd cell side cannot exhaust memory.
const DefaultMaxCells = 500000

// idNamespace is the UUIDv5 namespace for deterministic grid ids.
var idNamespace = uuid.MustParse("3f1d7c2e-9b64-4a05-8c47-d2f0a1e65b39")

// Cell is one square grid cell. SW and NE are the southwest and northeast
// corners in degrees; StratumID is the cell's zero-based position in
// row-major emission order.
type Cell struct {
	SW        geo.Point
	NE        geo.Point
	StratumID int
}

// Ring returns the cell's closed exterior ring: five positions starting and
// ending at the southwest corner, wound counterclockwise.
func (c Cell) Ring() [5]geo.Point {
	return [5]geo.Point{
		c.SW,
		{Lon: c.NE.Lon, Lat: c.SW.Lat},
		c.NE,
		{Lon: c.SW.Lon, Lat: c.NE.Lat},
		c.SW,
	}
}

// Grid is the result of one Build call: the ordered cells plus the inputs
// that produced them.
type Grid struct {
	Box     geo.BBox
	Side    geo.CellSize
	Columns int
	Rows    int

	// Degree span of one cell along each axis.
	CellLonSpan float64
	CellLatSpan float64

	cells []Cell
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	maxCells int
}

// WithMaxCells overrides the cell-count ceiling. Values <= 0 disable the
// ceiling entirely.
func WithMaxCells(n int) Option {
	return func(c *buildConfig) { c.maxCells = n }
}

// Build tiles box with square cells of the given side length and returns the
// resulting grid.
//
// Cell counts per axis are ceil(extent/side) measured in the side's unit, so
// the grid may extend past the box's east and north edges; cells are never
// shrunk or clipped to fit. Cells emit row-major from the southwest corner
// (south to north, west to east) and each receives a StratumID equal to its
// ordinal in that sequence.
//
// Build fails with INVALID_BOUNDS, INVALID_SIZE, or INVALID_UNIT when the
// inputs do not satisfy their invariants, and with GRID_TOO_LARGE when the
// projected cell count exceeds the ceiling.
func Build(box geo.BBox, side geo.CellSize, opts ...Option) (*Grid, error) {
	cfg := buildConfig{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Re-validate: Grid must hold its invariants even when the caller built
	// the inputs with struct literals instead of the constructors.
	validBox, err := geo.NewBBox(box.West, box.South, box.East, box.North)
	if err != nil {
		return nil, err
	}
	validSide, err := geo.NewCellSize(side.Value, side.Unit)
	if err != nil {
		return nil, err
	}
	box, side = validBox, validSide

	// Width along the south edge, height along the west edge, both in the
	// side's unit. High-latitude distortion of the degree shapes is accepted.
	width := geo.Distance(box.SouthWest(), geo.Point{Lon: box.East, Lat: box.South}, side.Unit)
	height := geo.Distance(box.SouthWest(), geo.Point{Lon: box.West, Lat: box.North}, side.Unit)

	columns := int(math.Ceil(width / side.Value))
	rows := int(math.Ceil(height / side.Value))
	if columns < 1 {
		columns = 1
	}
	if rows < 1 {
		rows = 1
	}

	// int64 so a pathological side cannot overflow the product before the
	// ceiling check fires.
	total := int64(rows) * int64(columns)
	if cfg.maxCells > 0 && total > int64(cfg.maxCells) {
		return nil, errors.New(errors.ErrCodeGridTooLarge,
			"%d columns x %d rows = %d cells exceeds the %d cell ceiling; increase the cell side or raise the limit",
			columns, rows, total, cfg.maxCells)
	}

	// Degree spans equivalent to one side length along each axis.
	lonSpan := box.Width() * side.Value / width
	latSpan := box.Height() * side.Value / height

	g := &Grid{
		Box:         box,
		Side:        side,
		Columns:     columns,
		Rows:        rows,
		CellLonSpan: lonSpan,
		CellLatSpan: latSpan,
		cells:       make([]Cell, 0, rows*columns),
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			sw := geo.Point{
				Lon: box.West + float64(c)*lonSpan,
				Lat: box.South + float64(r)*latSpan,
			}
			g.cells = append(g.cells, Cell{
				SW:        sw,
				NE:        geo.Point{Lon: sw.Lon + lonSpan, Lat: sw.Lat + latSpan},
				StratumID: len(g.cells),
			})
		}
	}

	return g, nil
}

// Cells returns the cells in emission order. The slice is owned by the grid
// and must not be modified.
func (g *Grid) Cells() []Cell { return g.cells }

// CellCount returns rows*columns.
func (g *Grid) CellCount() int { return len(g.cells) }

// Locate maps p to the stratum id of the cell containing it using index
// arithmetic, without scanning cells. Cell edges are half-open (a point on a
// shared edge belongs to the east/north neighbor) except on the grid's outer
// east and north boundary, which is inclusive. The second return is false
// when p lies outside the grid extent.
func (g *Grid) Locate(p geo.Point) (int, bool) {
	east := g.Box.West + float64(g.Columns)*g.CellLonSpan
	north := g.Box.South + float64(g.Rows)*g.CellLatSpan
	if p.Lon < g.Box.West || p.Lon > east || p.Lat < g.Box.South || p.Lat > north {
		return 0, false
	}

	col := int((p.Lon - g.Box.West) / g.CellLonSpan)
	row := int((p.Lat - g.Box.South) / g.CellLatSpan)
	if col == g.Columns {
		col--
	}
	if row == g.Rows {
		row--
	}
	return row*g.Columns + col, true
}

// ID returns a deterministic UUID derived from the grid's parameters, usable
// as a stable provenance key downstream. Identical inputs yield identical
// ids across processes.
func (g *Grid) ID() string {
	name := fmt.Sprintf("%.12f|%.12f|%.12f|%.12f|%g|%s",
		g.Box.West, g.Box.South, g.Box.East, g.Box.North, g.Side.Value, g.Side.Unit)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
