package geo

import (
	"math"

	"github.com/drivebylabs/stratgrid/pkg/errors"
)

// Unit is a distance unit from the closed enumeration supported by the grid
// builder. Physical units (kilometers, meters, ...) measure great-circle
// distance on the WGS84 sphere; angular units (degrees, radians) measure raw
// coordinate spans with no latitude correction.
type Unit string

// Supported distance units.
const (
	UnitKilometers    Unit = "kilometers"
	UnitMeters        Unit = "meters"
	UnitMiles         Unit = "miles"
	UnitNauticalMiles Unit = "nauticalmiles"
	UnitFeet          Unit = "feet"
	UnitYards         Unit = "yards"
	UnitDegrees       Unit = "degrees"
	UnitRadians       Unit = "radians"
)

// metersPerUnit maps each physical unit to its length in meters.
// Angular units are absent; they never pass through a meter conversion.
var metersPerUnit = map[Unit]float64{
	UnitKilometers:    1000,
	UnitMeters:        1,
	UnitMiles:         1609.344,
	UnitNauticalMiles: 1852,
	UnitFeet:          0.3048,
	UnitYards:         0.9144,
}

// unitAliases maps accepted spellings to canonical units.
var unitAliases = map[string]Unit{
	"kilometers":    UnitKilometers,
	"kilometres":    UnitKilometers,
	"kilometer":     UnitKilometers,
	"kilometre":     UnitKilometers,
	"km":            UnitKilometers,
	"meters":        UnitMeters,
	"metres":        UnitMeters,
	"meter":         UnitMeters,
	"metre":         UnitMeters,
	"m":             UnitMeters,
	"miles":         UnitMiles,
	"mile":          UnitMiles,
	"mi":            UnitMiles,
	"nauticalmiles": UnitNauticalMiles,
	"nauticalmile":  UnitNauticalMiles,
	"nmi":           UnitNauticalMiles,
	"feet":          UnitFeet,
	"foot":          UnitFeet,
	"ft":            UnitFeet,
	"yards":         UnitYards,
	"yard":          UnitYards,
	"yd":            UnitYards,
	"degrees":       UnitDegrees,
	"degree":        UnitDegrees,
	"deg":           UnitDegrees,
	"radians":       UnitRadians,
	"radian":        UnitRadians,
	"rad":           UnitRadians,
}

// ParseUnit resolves s (case-sensitive lowercase alias, e.g. "km", "miles")
// to a canonical Unit. Unknown spellings fail with an INVALID_UNIT error.
func ParseUnit(s string) (Unit, error) {
	if u, ok := unitAliases[s]; ok {
		return u, nil
	}
	return "", errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q (supported: km, m, mi, nmi, ft, yd, deg, rad)", s)
}

// Valid reports whether u is a member of the enumeration.
func (u Unit) Valid() bool {
	_, physical := metersPerUnit[u]
	return physical || u == UnitDegrees || u == UnitRadians
}

// Angular reports whether u measures coordinate spans (degrees, radians)
// rather than physical ground distance.
func (u Unit) Angular() bool {
	return u == UnitDegrees || u == UnitRadians
}

// String returns the canonical unit name.
func (u Unit) String() string { return string(u) }

// FromMeters converts a distance in meters into u. It must only be called
// for physical units; angular units panic because no meter conversion exists.
func (u Unit) FromMeters(m float64) float64 {
	factor, ok := metersPerUnit[u]
	if !ok {
		panic("geo: no meter conversion for angular unit " + string(u))
	}
	return m / factor
}

// FromDegrees converts a degree span into u for angular units
// (degrees: identity; radians: span scaled by pi/180).
func (u Unit) FromDegrees(deg float64) float64 {
	switch u {
	case UnitDegrees:
		return deg
	case UnitRadians:
		return deg * math.Pi / 180
	default:
		panic("geo: FromDegrees called for physical unit " + string(u))
	}
}
