package geojson

import "github.com/drivebylabs/stratgrid/pkg/geo"

// Contains reports whether p lies inside the feature's polygon. The exterior
// ring is tested with an even-odd ray cast after a cheap bounding-box
// precheck; interior rings (holes) subtract from containment.
func (f *Feature) Contains(p geo.Point) bool {
	if f.Geometry.Type != "Polygon" || len(f.Geometry.Coordinates) == 0 || len(f.Geometry.Coordinates[0]) == 0 {
		return false
	}
	if !ringBounds(f.Geometry.Coordinates[0]).Contains(p) {
		return false
	}
	if !ringContains(f.Geometry.Coordinates[0], p) {
		return false
	}
	for _, hole := range f.Geometry.Coordinates[1:] {
		if ringContains(hole, p) {
			return false
		}
	}
	return true
}

// ringBounds computes the axis-aligned bounds of a ring without validation.
func ringBounds(ring []Position) geo.BBox {
	b := geo.BBox{West: ring[0][0], South: ring[0][1], East: ring[0][0], North: ring[0][1]}
	for _, pos := range ring[1:] {
		if pos[0] < b.West {
			b.West = pos[0]
		}
		if pos[0] > b.East {
			b.East = pos[0]
		}
		if pos[1] < b.South {
			b.South = pos[1]
		}
		if pos[1] > b.North {
			b.North = pos[1]
		}
	}
	return b
}

// ringContains runs an even-odd ray cast from p toward positive longitude.
// Points exactly on an edge may land on either side; grid-based lookups go
// through index arithmetic instead when exact edge semantics matter.
func ringContains(ring []Position, p geo.Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
