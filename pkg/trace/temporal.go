package trace

import "github.com/drivebylabs/stratgrid/pkg/errors"

// TimeSegment is one temporal bucket: [Start, End) in unix seconds.
type TimeSegment struct {
	Start int64
	End   int64
}

// TimeSegments buckets [start, end] into segments of the given granularity.
// Intervals are closed-left/open-right; the range is extended by one second
// past end so the maximum timestamp falls inside the last segment instead of
// on its open boundary.
func TimeSegments(start, end, granularity int64) []TimeSegment {
	limit := end + 1
	var segments []TimeSegment
	for t := start; t < limit; t += granularity {
		segEnd := t + granularity
		if segEnd > limit {
			segEnd = limit
		}
		segments = append(segments, TimeSegment{Start: t, End: segEnd})
	}
	return segments
}

// TagTemporal assigns each record's TemporalID: the start timestamp of the
// segment containing it, with segments of the given granularity beginning at
// the dataset's minimum timestamp. A non-positive granularity fails with
// INVALID_TRACE; an empty dataset is a no-op.
func TagTemporal(ds *Dataset, granularity int64) error {
	if granularity <= 0 {
		return errors.New(errors.ErrCodeInvalidTrace, "temporal granularity (%d) must be greater than 0 seconds", granularity)
	}
	if len(ds.Records) == 0 {
		return nil
	}

	minTS, maxTS := ds.Records[0].Timestamp, ds.Records[0].Timestamp
	for i := range ds.Records {
		ts := ds.Records[i].Timestamp
		if ts < minTS {
			minTS = ts
		}
		if ts > maxTS {
			maxTS = ts
		}
	}

	// Segment starts are arithmetic from minTS, so lookup is integer
	// division rather than a scan over TimeSegments.
	limit := maxTS + 1
	for i := range ds.Records {
		ts := ds.Records[i].Timestamp
		if ts < minTS || ts >= limit {
			continue
		}
		temporal := minTS + (ts-minTS)/granularity*granularity
		ds.Records[i].TemporalID = &temporal
	}
	return nil
}
