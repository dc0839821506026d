// Package geojson models the GeoJSON documents exchanged with downstream
// consumers: polygon feature collections with per-feature stratum ids.
//
// The model is deliberately narrow. Only the members this tool reads or
// writes are typed; unknown feature properties round-trip through the
// untyped Properties map. Coordinate positions use GeoJSON axis order
// (longitude, latitude).
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/drivebylabs/stratgrid/pkg/errors"
)

// StratumIDProperty is the property key downstream systems read as the
// stratification key.
const StratumIDProperty = "stratum_id"

// Position is a [longitude, latitude] coordinate pair.
type Position [2]float64

// Geometry is a GeoJSON geometry. Only Polygon coordinates are modeled;
// the Type field preserves whatever the document declared so validation
// can name it.
type Geometry struct {
	Type        string       `json:"type"`
	Coordinates [][]Position `json:"coordinates"`
}

// Feature is one GeoJSON feature: a geometry plus a free-form property map.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// StratumID returns the feature's stratum_id property, if present and
// numeric. JSON decoding yields float64 for numbers; integral values are
// truncated to int.
func (f *Feature) StratumID() (int, bool) {
	v, ok := f.Properties[StratumIDProperty]
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int:
		return id, true
	case float64:
		return int(id), true
	default:
		return 0, false
	}
}

// FeatureCollection is a GeoJSON FeatureCollection document. The optional
// Grid member carries grid provenance when the producer stamps it.
type FeatureCollection struct {
	Type     string          `json:"type"`
	Features []Feature       `json:"features"`
	Grid     json.RawMessage `json:"grid,omitempty"`
}

// NewFeatureCollection returns an empty collection with the correct type tags.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// Read decodes a FeatureCollection from r. Malformed JSON or a document
// that is not a FeatureCollection fails with INVALID_GEOJSON.
func Read(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeoJSON, err, "decode feature collection")
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.New(errors.ErrCodeInvalidGeoJSON, "document type is %q, want FeatureCollection", fc.Type)
	}
	return &fc, nil
}

// ReadFile opens path and decodes it with [Read].
func ReadFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes fc to w as a single JSON document. Compact by default;
// pretty opts into two-space indentation. Output ends with a newline either
// way, matching json.Encoder.
func Write(fc *FeatureCollection, w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ValidatePolygons checks that every feature has Polygon geometry whose
// rings are well formed: at least four positions each, first and last
// identical. Anything else fails with INVALID_GEOJSON naming the feature
// index and the offending ring, mirroring the constraint downstream
// consumers place on stratification documents.
func (fc *FeatureCollection) ValidatePolygons() error {
	for i, f := range fc.Features {
		if f.Geometry.Type != "Polygon" {
			return errors.New(errors.ErrCodeInvalidGeoJSON,
				"feature %d has geometry type %q, only Polygon is supported", i, f.Geometry.Type)
		}
		if len(f.Geometry.Coordinates) == 0 {
			return errors.New(errors.ErrCodeInvalidGeoJSON, "feature %d has no rings", i)
		}
		for j, ring := range f.Geometry.Coordinates {
			if len(ring) < 4 {
				return errors.New(errors.ErrCodeInvalidGeoJSON,
					"feature %d ring %d has %d positions, a closed ring needs at least 4", i, j, len(ring))
			}
			if ring[0] != ring[len(ring)-1] {
				return errors.New(errors.ErrCodeInvalidGeoJSON,
					"feature %d ring %d is not closed, first and last position must match", i, j)
			}
		}
	}
	return nil
}

// AssignStratumIDs labels every feature with properties.stratum_id equal to
// its zero-based position in the feature array. Existing stratum_id values
// are overwritten; a nil properties map is created first.
func (fc *FeatureCollection) AssignStratumIDs() {
	for i := range fc.Features {
		if fc.Features[i].Properties == nil {
			fc.Features[i].Properties = map[string]any{}
		}
		fc.Features[i].Properties[StratumIDProperty] = i
	}
}
