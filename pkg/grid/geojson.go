package grid

import (
	"encoding/json"

	"github.com/drivebylabs/stratgrid/pkg/geojson"
)

// FCOption configures FeatureCollection output.
type FCOption func(*fcConfig)

type fcConfig struct {
	stamp bool
}

// WithProvenance stamps the document's top-level "grid" member with the
// grid's id and build parameters so downstream stores can key on them.
func WithProvenance() FCOption {
	return func(c *fcConfig) { c.stamp = true }
}

// provenance is the shape of the optional top-level "grid" member.
type provenance struct {
	ID      string     `json:"id"`
	BBox    [4]float64 `json:"bbox"`
	Side    float64    `json:"cell_side"`
	Unit    string     `json:"unit"`
	Columns int        `json:"columns"`
	Rows    int        `json:"rows"`
}

// FeatureCollection converts the grid into a GeoJSON document: one Polygon
// feature per cell in emission order, each carrying a stratum_id property.
func (g *Grid) FeatureCollection(opts ...FCOption) *geojson.FeatureCollection {
	cfg := fcConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = make([]geojson.Feature, len(g.cells))
	for i, cell := range g.cells {
		ring := cell.Ring()
		positions := make([]geojson.Position, len(ring))
		for j, p := range ring {
			positions[j] = geojson.Position{p.Lon, p.Lat}
		}
		fc.Features[i] = geojson.Feature{
			Type:       "Feature",
			Geometry:   geojson.Geometry{Type: "Polygon", Coordinates: [][]geojson.Position{positions}},
			Properties: map[string]any{geojson.StratumIDProperty: cell.StratumID},
		}
	}

	if cfg.stamp {
		// Marshal cannot fail for this fixed shape.
		raw, _ := json.Marshal(provenance{
			ID:      g.ID(),
			BBox:    [4]float64{g.Box.West, g.Box.South, g.Box.East, g.Box.North},
			Side:    g.Side.Value,
			Unit:    g.Side.Unit.String(),
			Columns: g.Columns,
			Rows:    g.Rows,
		})
		fc.Grid = raw
	}

	return fc
}
