// Package trace reads vehicle mobility traces from CSV and tags each datum
// with the stratum and time segment it falls into.
//
// A trace CSV has a header row and at least the columns vehicle_id (int),
// latitude (float), longitude (float), and timestamp (int, seconds). Extra
// columns pass through untouched. Tagging appends stratum_id, temporal_id
// and, when both are assigned, a combined spatiotemporal segment key.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
)

// Required trace columns, in the order they are reported when missing.
var requiredColumns = []string{"vehicle_id", "latitude", "longitude", "timestamp"}

// Record is one vehicle mobility datum plus its tags. StratumID and
// TemporalID are nil until tagging assigns them; a record outside every
// stratum keeps a nil StratumID.
type Record struct {
	VehicleID int
	Latitude  float64
	Longitude float64
	Timestamp int64

	StratumID  *int
	TemporalID *int64

	// extra preserves pass-through column values in header order.
	extra []string
}

// Point returns the record's position in GeoJSON axis order.
func (r *Record) Point() geo.Point {
	return geo.Point{Lon: r.Longitude, Lat: r.Latitude}
}

// Dataset is a parsed trace file: the records plus the pass-through column
// names needed to write them back out.
type Dataset struct {
	Records      []Record
	ExtraColumns []string
}

// Read parses a trace CSV from r. The header must name every required
// column; each row's required values must parse as their declared types.
// Failures carry INVALID_TRACE and name the row and column at fault.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "read header row")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidTrace, "column %q not found in the header", col)
		}
	}

	var extras []string
	var extraIdx []int
	for i, name := range header {
		if name != "vehicle_id" && name != "latitude" && name != "longitude" && name != "timestamp" {
			extras = append(extras, name)
			extraIdx = append(extraIdx, i)
		}
	}

	ds := &Dataset{ExtraColumns: extras}
	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "read row %d", rowNum)
		}

		rec, err := parseRecord(row, colIdx, rowNum)
		if err != nil {
			return nil, err
		}
		rec.extra = make([]string, len(extraIdx))
		for i, idx := range extraIdx {
			rec.extra[i] = row[idx]
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

func parseRecord(row []string, colIdx map[string]int, rowNum int) (Record, error) {
	vehicleID, err := strconv.Atoi(row[colIdx["vehicle_id"]])
	if err != nil {
		return Record{}, errors.New(errors.ErrCodeInvalidTrace, "row %d: vehicle_id %q must be an integer", rowNum, row[colIdx["vehicle_id"]])
	}
	lat, err := strconv.ParseFloat(row[colIdx["latitude"]], 64)
	if err != nil || math.IsNaN(lat) {
		return Record{}, errors.New(errors.ErrCodeInvalidTrace, "row %d: latitude %q must be a number", rowNum, row[colIdx["latitude"]])
	}
	lon, err := strconv.ParseFloat(row[colIdx["longitude"]], 64)
	if err != nil || math.IsNaN(lon) {
		return Record{}, errors.New(errors.ErrCodeInvalidTrace, "row %d: longitude %q must be a number", rowNum, row[colIdx["longitude"]])
	}
	ts, err := strconv.ParseInt(row[colIdx["timestamp"]], 10, 64)
	if err != nil {
		return Record{}, errors.New(errors.ErrCodeInvalidTrace, "row %d: timestamp %q must be an integer (seconds)", rowNum, row[colIdx["timestamp"]])
	}
	return Record{VehicleID: vehicleID, Latitude: lat, Longitude: lon, Timestamp: ts}, nil
}

// Write emits the dataset as CSV to w: the required columns, the preserved
// extra columns, then stratum_id, temporal_id, and spatiotemporal_segment.
// Untagged values stay empty; the segment key "<stratum>_<temporal>" is only
// written when both tags are present.
func Write(ds *Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, requiredColumns...)
	header = append(header, ds.ExtraColumns...)
	header = append(header, "stratum_id", "temporal_id", "spatiotemporal_segment")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range ds.Records {
		rec := &ds.Records[i]
		row := []string{
			strconv.Itoa(rec.VehicleID),
			strconv.FormatFloat(rec.Latitude, 'g', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'g', -1, 64),
			strconv.FormatInt(rec.Timestamp, 10),
		}
		row = append(row, rec.extra...)

		stratum, temporal, segment := "", "", ""
		if rec.StratumID != nil {
			stratum = strconv.Itoa(*rec.StratumID)
		}
		if rec.TemporalID != nil {
			temporal = strconv.FormatInt(*rec.TemporalID, 10)
		}
		if rec.StratumID != nil && rec.TemporalID != nil {
			segment = stratum + "_" + temporal
		}
		row = append(row, stratum, temporal, segment)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
