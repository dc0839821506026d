package grid

import (
	"bytes"
	"math"
	"testing"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
)

func mustBBox(t *testing.T, w, s, e, n float64) geo.BBox {
	t.Helper()
	b, err := geo.NewBBox(w, s, e, n)
	if err != nil {
		t.Fatalf("NewBBox(%v, %v, %v, %v) error = %v", w, s, e, n, err)
	}
	return b
}

func mustSize(t *testing.T, v float64, u geo.Unit) geo.CellSize {
	t.Helper()
	s, err := geo.NewCellSize(v, u)
	if err != nil {
		t.Fatalf("NewCellSize(%v, %v) error = %v", v, u, err)
	}
	return s
}

// The bounding box from the Bengaluru deployment the tool was first used on.
func bengaluru(t *testing.T) geo.BBox {
	return mustBBox(t, 77.52, 12.92, 77.68, 13.03)
}

func TestBuildCountMatchesCeil(t *testing.T) {
	box := bengaluru(t)
	side := mustSize(t, 1, geo.UnitKilometers)

	g, err := Build(box, side)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	width := geo.Distance(box.SouthWest(), geo.Point{Lon: box.East, Lat: box.South}, side.Unit)
	height := geo.Distance(box.SouthWest(), geo.Point{Lon: box.West, Lat: box.North}, side.Unit)
	wantCols := int(math.Ceil(width / side.Value))
	wantRows := int(math.Ceil(height / side.Value))

	if g.Columns != wantCols || g.Rows != wantRows {
		t.Errorf("grid is %dx%d, want %dx%d", g.Columns, g.Rows, wantCols, wantRows)
	}
	if g.Columns < 2 || g.Rows < 2 {
		t.Errorf("expected more than one row and column for a ~17x12 km box, got %dx%d", g.Columns, g.Rows)
	}
	if got := g.CellCount(); got != wantCols*wantRows {
		t.Errorf("CellCount() = %d, want %d", got, wantCols*wantRows)
	}
}

func TestBuildStratumIDsRowMajor(t *testing.T) {
	g, err := Build(bengaluru(t), mustSize(t, 1, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for i, cell := range g.Cells() {
		if cell.StratumID != i {
			t.Fatalf("cell %d has StratumID %d", i, cell.StratumID)
		}
	}

	// Row-major: consecutive cells in a row step east, row boundaries step
	// north and reset to the west edge.
	cells := g.Cells()
	for i := 1; i < len(cells); i++ {
		prev, cur := cells[i-1], cells[i]
		if i%g.Columns == 0 {
			if cur.SW.Lon != g.Box.West {
				t.Fatalf("cell %d starts a row at lon %v, want %v", i, cur.SW.Lon, g.Box.West)
			}
			if cur.SW.Lat <= prev.SW.Lat {
				t.Fatalf("cell %d does not step north across row boundary", i)
			}
		} else {
			if cur.SW.Lon <= prev.SW.Lon {
				t.Fatalf("cell %d does not step east within its row", i)
			}
			if cur.SW.Lat != prev.SW.Lat {
				t.Fatalf("cell %d changes latitude mid-row", i)
			}
		}
	}
}

func TestBuildCoverage(t *testing.T) {
	box := bengaluru(t)
	g, err := Build(box, mustSize(t, 1, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	cells := g.Cells()
	first, last := cells[0], cells[len(cells)-1]

	if first.SW != box.SouthWest() {
		t.Errorf("first cell SW = %v, want box SW %v", first.SW, box.SouthWest())
	}
	// Full coverage: the grid may overshoot east/north but never undershoot.
	if last.NE.Lon < box.East {
		t.Errorf("grid east edge %v does not reach box east %v", last.NE.Lon, box.East)
	}
	if last.NE.Lat < box.North {
		t.Errorf("grid north edge %v does not reach box north %v", last.NE.Lat, box.North)
	}
}

func TestBuildSingleCell(t *testing.T) {
	box := mustBBox(t, 0, 0, 1, 1)
	// 1000 km dwarfs a one-degree box in every physical unit.
	g, err := Build(box, mustSize(t, 1000, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g.CellCount() != 1 {
		t.Fatalf("CellCount() = %d, want 1", g.CellCount())
	}
	cell := g.Cells()[0]
	if cell.SW != (geo.Point{Lon: 0, Lat: 0}) {
		t.Errorf("cell SW = %v, want (0, 0)", cell.SW)
	}
	if cell.StratumID != 0 {
		t.Errorf("StratumID = %d, want 0", cell.StratumID)
	}
	if cell.NE.Lon < box.East || cell.NE.Lat < box.North {
		t.Errorf("single cell %v does not cover the box", cell)
	}
}

func TestBuildDegreesUnit(t *testing.T) {
	box := mustBBox(t, 0, 0, 1, 1)
	g, err := Build(box, mustSize(t, 0.25, geo.UnitDegrees))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g.Columns != 4 || g.Rows != 4 {
		t.Fatalf("grid is %dx%d, want 4x4", g.Columns, g.Rows)
	}
	// Degrees need no conversion: cell spans are exactly the side value.
	if math.Abs(g.CellLonSpan-0.25) > 1e-12 || math.Abs(g.CellLatSpan-0.25) > 1e-12 {
		t.Errorf("cell spans = (%v, %v), want (0.25, 0.25)", g.CellLonSpan, g.CellLatSpan)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	valid := mustSize(t, 1, geo.UnitKilometers)

	tests := []struct {
		name     string
		box      geo.BBox
		side     geo.CellSize
		wantCode errors.Code
	}{
		{"inverted box", geo.BBox{West: 10, South: 0, East: 5, North: 1}, valid, errors.ErrCodeInvalidBounds},
		{"degenerate box", geo.BBox{West: 0, South: 1, East: 1, North: 1}, valid, errors.ErrCodeInvalidBounds},
		{"zero side", geo.BBox{West: 0, South: 0, East: 1, North: 1}, geo.CellSize{Value: 0, Unit: geo.UnitKilometers}, errors.ErrCodeInvalidSize},
		{"negative side", geo.BBox{West: 0, South: 0, East: 1, North: 1}, geo.CellSize{Value: -1, Unit: geo.UnitKilometers}, errors.ErrCodeInvalidSize},
		{"nan side", geo.BBox{West: 0, South: 0, East: 1, North: 1}, geo.CellSize{Value: math.NaN(), Unit: geo.UnitKilometers}, errors.ErrCodeInvalidSize},
		{"bad unit", geo.BBox{West: 0, South: 0, East: 1, North: 1}, geo.CellSize{Value: 1, Unit: "leagues"}, errors.ErrCodeInvalidUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.box, tt.side)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Build() error = %v, want code %v", err, tt.wantCode)
			}
		})
	}
}

func TestBuildCellCeiling(t *testing.T) {
	box := mustBBox(t, 0, 0, 1, 1)
	side := mustSize(t, 0.01, geo.UnitDegrees) // 100x100 = 10000 cells

	if _, err := Build(box, side, WithMaxCells(9999)); !errors.Is(err, errors.ErrCodeGridTooLarge) {
		t.Errorf("Build() error = %v, want GRID_TOO_LARGE", err)
	}
	if _, err := Build(box, side, WithMaxCells(10000)); err != nil {
		t.Errorf("Build() at exactly the ceiling error = %v", err)
	}
	if _, err := Build(box, side, WithMaxCells(0)); err != nil {
		t.Errorf("Build() with disabled ceiling error = %v", err)
	}
}

func TestBuildDeterminism(t *testing.T) {
	box := bengaluru(t)
	side := mustSize(t, 1, geo.UnitKilometers)

	g1, err := Build(box, side)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	g2, err := Build(box, side)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if g1.CellCount() != g2.CellCount() {
		t.Fatalf("cell counts differ: %d vs %d", g1.CellCount(), g2.CellCount())
	}
	for i := range g1.Cells() {
		if g1.Cells()[i] != g2.Cells()[i] {
			t.Fatalf("cell %d differs between identical builds", i)
		}
	}
	if g1.ID() != g2.ID() {
		t.Errorf("ID() differs between identical builds: %s vs %s", g1.ID(), g2.ID())
	}

	var b1, b2 bytes.Buffer
	if err := geojson.Write(g1.FeatureCollection(), &b1, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := geojson.Write(g2.FeatureCollection(), &b2, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Error("serialized documents differ between identical builds")
	}
}

func TestGridIDDistinguishesInputs(t *testing.T) {
	box := bengaluru(t)
	g1, _ := Build(box, mustSize(t, 1, geo.UnitKilometers))
	g2, _ := Build(box, mustSize(t, 2, geo.UnitKilometers))
	g3, _ := Build(box, mustSize(t, 1, geo.UnitMiles))

	if g1.ID() == g2.ID() || g1.ID() == g3.ID() || g2.ID() == g3.ID() {
		t.Error("grids with different parameters share an id")
	}
}

func TestLocate(t *testing.T) {
	box := mustBBox(t, 0, 0, 1, 1)
	g, err := Build(box, mustSize(t, 0.25, geo.UnitDegrees))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	tests := []struct {
		name   string
		p      geo.Point
		wantID int
		wantOK bool
	}{
		{"southwest corner", geo.Point{Lon: 0, Lat: 0}, 0, true},
		{"first cell interior", geo.Point{Lon: 0.1, Lat: 0.1}, 0, true},
		{"second column", geo.Point{Lon: 0.3, Lat: 0.1}, 1, true},
		{"second row", geo.Point{Lon: 0.1, Lat: 0.3}, 4, true},
		{"shared edge belongs to east neighbor", geo.Point{Lon: 0.25, Lat: 0.1}, 1, true},
		{"shared edge belongs to north neighbor", geo.Point{Lon: 0.1, Lat: 0.25}, 4, true},
		{"outer northeast boundary inclusive", geo.Point{Lon: 1, Lat: 1}, 15, true},
		{"west of grid", geo.Point{Lon: -0.1, Lat: 0.5}, 0, false},
		{"north of grid", geo.Point{Lon: 0.5, Lat: 1.1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := g.Locate(tt.p)
			if ok != tt.wantOK {
				t.Fatalf("Locate(%v) ok = %v, want %v", tt.p, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("Locate(%v) = %d, want %d", tt.p, id, tt.wantID)
			}
		})
	}
}

func TestLocateAgreesWithEmission(t *testing.T) {
	g, err := Build(bengaluru(t), mustSize(t, 1, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, cell := range g.Cells() {
		center := geo.Point{
			Lon: (cell.SW.Lon + cell.NE.Lon) / 2,
			Lat: (cell.SW.Lat + cell.NE.Lat) / 2,
		}
		id, ok := g.Locate(center)
		if !ok || id != cell.StratumID {
			t.Fatalf("Locate(center of %d) = %d, %v", cell.StratumID, id, ok)
		}
	}
}

func TestCellRing(t *testing.T) {
	c := Cell{SW: geo.Point{Lon: 2, Lat: 3}, NE: geo.Point{Lon: 4, Lat: 5}}
	ring := c.Ring()

	if ring[0] != ring[4] {
		t.Error("ring is not closed")
	}
	want := [5]geo.Point{{Lon: 2, Lat: 3}, {Lon: 4, Lat: 3}, {Lon: 4, Lat: 5}, {Lon: 2, Lat: 5}, {Lon: 2, Lat: 3}}
	if ring != want {
		t.Errorf("Ring() = %v, want %v", ring, want)
	}
}

func TestFeatureCollection(t *testing.T) {
	g, err := Build(bengaluru(t), mustSize(t, 1, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	fc := g.FeatureCollection()
	if fc.Type != "FeatureCollection" {
		t.Errorf("Type = %q", fc.Type)
	}
	if len(fc.Features) != g.CellCount() {
		t.Fatalf("len(Features) = %d, want %d", len(fc.Features), g.CellCount())
	}
	if fc.Grid != nil {
		t.Error("unstamped document carries a grid member")
	}

	for i, f := range fc.Features {
		if f.Geometry.Type != "Polygon" {
			t.Fatalf("feature %d geometry type = %q", i, f.Geometry.Type)
		}
		ring := f.Geometry.Coordinates[0]
		if len(ring) != 5 {
			t.Fatalf("feature %d ring has %d positions, want 5", i, len(ring))
		}
		if ring[0] != ring[4] {
			t.Fatalf("feature %d ring is not closed", i)
		}
		if id, ok := f.StratumID(); !ok || id != i {
			t.Fatalf("feature %d stratum id = %v, %v", i, id, ok)
		}
	}
}

func TestFeatureCollectionProvenance(t *testing.T) {
	g, err := Build(bengaluru(t), mustSize(t, 1, geo.UnitKilometers))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	fc := g.FeatureCollection(WithProvenance())
	if fc.Grid == nil {
		t.Fatal("stamped document has no grid member")
	}
	for _, want := range []string{g.ID(), `"columns"`, `"kilometers"`} {
		if !bytes.Contains(fc.Grid, []byte(want)) {
			t.Errorf("grid member %s missing %q", fc.Grid, want)
		}
	}
}
