package geo

import (
	"fmt"
	"math"

	"github.com/drivebylabs/stratgrid/pkg/errors"
)

// CellSize is the side length of one grid cell: a positive finite value
// paired with a distance unit. Use NewCellSize to construct a validated
// instance.
type CellSize struct {
	Value float64
	Unit  Unit
}

// NewCellSize validates value and unit and returns a cell size.
// Non-positive or non-finite values fail with INVALID_SIZE; units outside
// the enumeration fail with INVALID_UNIT.
func NewCellSize(value float64, unit Unit) (CellSize, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return CellSize{}, errors.New(errors.ErrCodeInvalidSize, "cell side (%v) must be a finite number", value)
	}
	if value <= 0 {
		return CellSize{}, errors.New(errors.ErrCodeInvalidSize, "cell side (%g) must be greater than 0", value)
	}
	if !unit.Valid() {
		return CellSize{}, errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q", string(unit))
	}
	return CellSize{Value: value, Unit: unit}, nil
}

// String returns the size as "<value> <unit>" for diagnostics.
func (s CellSize) String() string {
	return fmt.Sprintf("%g %s", s.Value, s.Unit)
}
