package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
	"github.com/drivebylabs/stratgrid/pkg/grid"
)

const sampleCSV = `vehicle_id,latitude,longitude,timestamp,speed
1,0.1,0.1,1000,32.5
1,0.1,0.6,1300,28.0
2,0.85,0.85,1700,41.2
2,5.0,5.0,2000,12.9
`

func TestRead(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(ds.Records) != 4 {
		t.Fatalf("len(Records) = %d, want 4", len(ds.Records))
	}
	if got := ds.ExtraColumns; len(got) != 1 || got[0] != "speed" {
		t.Errorf("ExtraColumns = %v, want [speed]", got)
	}

	first := ds.Records[0]
	if first.VehicleID != 1 || first.Latitude != 0.1 || first.Longitude != 0.1 || first.Timestamp != 1000 {
		t.Errorf("first record = %+v", first)
	}
	if first.StratumID != nil || first.TemporalID != nil {
		t.Error("fresh records must be untagged")
	}
	if p := first.Point(); p.Lon != 0.1 || p.Lat != 0.1 {
		t.Errorf("Point() = %v, axis order must be lon/lat", p)
	}
}

func TestReadShippedExample(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "examples", "traces", "traces.csv"))
	if err != nil {
		t.Fatalf("open example trace: %v", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ds.Records) != 12 {
		t.Errorf("len(Records) = %d, want 12", len(ds.Records))
	}
	if got := ds.ExtraColumns; len(got) != 2 || got[0] != "speed" || got[1] != "route" {
		t.Errorf("ExtraColumns = %v, want [speed route]", got)
	}
}

func TestReadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"missing column", "vehicle_id,latitude,longitude\n1,0.1,0.1\n", "timestamp"},
		{"bad vehicle id", "vehicle_id,latitude,longitude,timestamp\nbus-7,0.1,0.1,1000\n", "row 2"},
		{"bad latitude", "vehicle_id,latitude,longitude,timestamp\n1,north,0.1,1000\n", "latitude"},
		{"bad timestamp", "vehicle_id,latitude,longitude,timestamp\n1,0.1,0.1,noon\n", "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.csv))
			if !errors.Is(err, errors.ErrCodeInvalidTrace) {
				t.Fatalf("error = %v, want INVALID_TRACE", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestTagStrataWithGrid(t *testing.T) {
	box, _ := geo.NewBBox(0, 0, 1, 1)
	side, _ := geo.NewCellSize(0.5, geo.UnitDegrees)
	g, err := grid.Build(box, side)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	tagged := TagStrata(ds, g)
	if tagged != 3 {
		t.Errorf("tagged = %d, want 3", tagged)
	}

	// 2x2 grid of 0.5 degree cells, row-major from the southwest.
	wantIDs := []*int{intPtr(0), intPtr(1), intPtr(3), nil}
	for i, want := range wantIDs {
		got := ds.Records[i].StratumID
		switch {
		case want == nil && got != nil:
			t.Errorf("record %d stratum = %d, want untagged", i, *got)
		case want != nil && got == nil:
			t.Errorf("record %d untagged, want %d", i, *want)
		case want != nil && *got != *want:
			t.Errorf("record %d stratum = %d, want %d", i, *got, *want)
		}
	}
}

func TestTagStrataWithPolygons(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features,
		polygon([]geojson.Position{{0, 0}, {0.5, 0}, {0.5, 1}, {0, 1}, {0, 0}}),
		polygon([]geojson.Position{{0.5, 0}, {1, 0}, {1, 1}, {0.5, 1}, {0.5, 0}}),
	)
	fc.AssignStratumIDs()

	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	tagged := TagStrata(ds, NewStrataLocator(fc))
	if tagged != 3 {
		t.Errorf("tagged = %d, want 3", tagged)
	}
	if id := ds.Records[0].StratumID; id == nil || *id != 0 {
		t.Errorf("record 0 stratum = %v, want 0", id)
	}
	if id := ds.Records[1].StratumID; id == nil || *id != 1 {
		t.Errorf("record 1 stratum = %v, want 1", id)
	}
	if ds.Records[3].StratumID != nil {
		t.Error("record outside every stratum was tagged")
	}
}

func TestTagTemporal(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if err := TagTemporal(ds, 500); err != nil {
		t.Fatalf("TagTemporal() error = %v", err)
	}

	// Segments start at the minimum timestamp 1000: [1000,1500) [1500,2000)
	// [2000,2001). The maximum timestamp lands in the extended last segment.
	want := []int64{1000, 1000, 1500, 2000}
	for i, w := range want {
		got := ds.Records[i].TemporalID
		if got == nil || *got != w {
			t.Errorf("record %d temporal = %v, want %d", i, got, w)
		}
	}
}

func TestTagTemporalRejectsBadGranularity(t *testing.T) {
	ds := &Dataset{}
	for _, g := range []int64{0, -60} {
		if err := TagTemporal(ds, g); !errors.Is(err, errors.ErrCodeInvalidTrace) {
			t.Errorf("TagTemporal(%d) error = %v, want INVALID_TRACE", g, err)
		}
	}
}

func TestTimeSegments(t *testing.T) {
	segments := TimeSegments(1000, 2000, 500)

	want := []TimeSegment{{1000, 1500}, {1500, 2000}, {2000, 2001}}
	if len(segments) != len(want) {
		t.Fatalf("len(segments) = %d, want %d", len(segments), len(want))
	}
	for i, w := range want {
		if segments[i] != w {
			t.Errorf("segment %d = %v, want %v", i, segments[i], w)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	box, _ := geo.NewBBox(0, 0, 1, 1)
	side, _ := geo.NewCellSize(0.5, geo.UnitDegrees)
	g, _ := grid.Build(box, side)
	TagStrata(ds, g)
	if err := TagTemporal(ds, 500); err != nil {
		t.Fatalf("TagTemporal() error = %v", err)
	}

	var buf bytes.Buffer
	if err := Write(ds, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("output has %d lines, want 5", len(lines))
	}
	if lines[0] != "vehicle_id,latitude,longitude,timestamp,speed,stratum_id,temporal_id,spatiotemporal_segment" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1,0.1,0.1,1000,32.5,0,1000,0_1000" {
		t.Errorf("tagged row = %q", lines[1])
	}
	// Outside the grid: stratum and segment stay empty, temporal is kept.
	if lines[4] != "2,5,5,2000,12.9,,2000," {
		t.Errorf("untagged row = %q", lines[4])
	}
}

func polygon(ring []geojson.Position) geojson.Feature {
	return geojson.Feature{
		Type:     "Feature",
		Geometry: geojson.Geometry{Type: "Polygon", Coordinates: [][]geojson.Position{ring}},
	}
}

func intPtr(i int) *int { return &i }
