// Package geo provides the geographic value types used by the grid builder:
// points, validated bounding boxes, distance units, and cell sizes.
//
// All coordinates are WGS84 degrees with GeoJSON axis order (longitude,
// latitude). Values are constructed through validating constructors and are
// immutable afterwards; the zero value of BBox and CellSize is not valid and
// must not be used directly.
package geo

import (
	"fmt"
	"math"

	"github.com/drivebylabs/stratgrid/pkg/errors"
)

// Point is a geographic position in WGS84 degrees.
type Point struct {
	Lon float64 // Longitude, positive east
	Lat float64 // Latitude, positive north
}

// String returns the position as "lon,lat" for diagnostics.
func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.Lon, p.Lat)
}

// BBox is a rectangular region bounded by west/south/east/north degree
// coordinates. A valid box has west < east and south < north (strictly), with
// latitudes inside [-90, 90] and longitudes inside [-180, 180]. Use NewBBox
// to construct a validated instance.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// NewBBox validates the four corner coordinates and returns a bounding box.
// Degenerate or inverted boxes (west >= east, south >= north), out-of-range
// coordinates, and non-finite values are rejected with an INVALID_BOUNDS
// error naming the offending value.
func NewBBox(west, south, east, north float64) (BBox, error) {
	coords := []struct {
		name  string
		value float64
	}{{"west", west}, {"south", south}, {"east", east}, {"north", north}}
	for _, c := range coords {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "%s (%v) must be a finite number", c.name, c.value)
		}
	}
	if west >= east {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "west (%g) must be less than east (%g)", west, east)
	}
	if south >= north {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "south (%g) must be less than north (%g)", south, north)
	}
	if south < -90 || north > 90 {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "latitudes [%g, %g] must be within [-90, 90]", south, north)
	}
	if west < -180 || east > 180 {
		return BBox{}, errors.New(errors.ErrCodeInvalidBounds, "longitudes [%g, %g] must be within [-180, 180]", west, east)
	}
	return BBox{West: west, South: south, East: east, North: north}, nil
}

// Width returns the longitude span in degrees.
func (b BBox) Width() float64 { return b.East - b.West }

// Height returns the latitude span in degrees.
func (b BBox) Height() float64 { return b.North - b.South }

// SouthWest returns the box's southwest corner.
func (b BBox) SouthWest() Point { return Point{Lon: b.West, Lat: b.South} }

// NorthEast returns the box's northeast corner.
func (b BBox) NorthEast() Point { return Point{Lon: b.East, Lat: b.North} }

// Contains reports whether p lies inside the box, edges inclusive.
func (b BBox) Contains(p Point) bool {
	return p.Lon >= b.West && p.Lon <= b.East && p.Lat >= b.South && p.Lat <= b.North
}

// String returns the box as "[west, south, east, north]" for diagnostics.
func (b BBox) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.West, b.South, b.East, b.North)
}
