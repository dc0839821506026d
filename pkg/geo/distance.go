package geo

import "math"

// earthRadiusMeters is the mean Earth radius used for great-circle distance.
// The value matches the constant used by common GeoJSON tooling so grids
// produced here line up with grids produced elsewhere.
const earthRadiusMeters = 6371008.8

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Distance returns the distance between a and b expressed in unit.
// Physical units measure the great-circle arc; angular units measure the
// larger raw coordinate span between the points.
func Distance(a, b Point, unit Unit) float64 {
	if unit.Angular() {
		span := math.Max(math.Abs(b.Lon-a.Lon), math.Abs(b.Lat-a.Lat))
		return unit.FromDegrees(span)
	}
	return unit.FromMeters(Haversine(a, b))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
