package trace

import (
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
)

// Locator resolves a point to the stratum containing it. grid.Grid satisfies
// this directly; StrataLocator adapts an arbitrary polygon stratification.
type Locator interface {
	Locate(p geo.Point) (int, bool)
}

// TagStrata assigns each record's StratumID via loc. Records outside every
// stratum keep a nil StratumID; only matches are tagged. It returns the
// number of records tagged.
func TagStrata(ds *Dataset, loc Locator) int {
	tagged := 0
	for i := range ds.Records {
		if id, ok := loc.Locate(ds.Records[i].Point()); ok {
			stratum := id
			ds.Records[i].StratumID = &stratum
			tagged++
		}
	}
	return tagged
}

// StrataLocator locates points by polygon containment against a labeled
// stratification. Features must already carry stratum_id properties (see
// geojson.AssignStratumIDs); the first containing feature wins.
type StrataLocator struct {
	fc *geojson.FeatureCollection
}

// NewStrataLocator wraps a labeled feature collection for point lookups.
func NewStrataLocator(fc *geojson.FeatureCollection) *StrataLocator {
	return &StrataLocator{fc: fc}
}

// Locate scans the strata in order and returns the stratum id of the first
// polygon containing p. Linear in the number of strata.
func (l *StrataLocator) Locate(p geo.Point) (int, bool) {
	for i := range l.fc.Features {
		f := &l.fc.Features[i]
		if !f.Contains(p) {
			continue
		}
		if id, ok := f.StratumID(); ok {
			return id, true
		}
		return i, true
	}
	return 0, false
}
