package trace

import (
	"strings"
	"testing"
)

func TestAnonymize(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	original := make([]Record, len(ds.Records))
	copy(original, ds.Records)

	mapping := Anonymize(ds)

	// Two distinct vehicles mapped onto a permutation of 0..1.
	if len(mapping) != 2 {
		t.Fatalf("len(mapping) = %d, want 2", len(mapping))
	}
	used := make(map[int]bool)
	for orig, anon := range mapping {
		if anon < 0 || anon >= len(mapping) {
			t.Errorf("vehicle %d mapped to %d, outside 0..%d", orig, anon, len(mapping)-1)
		}
		if used[anon] {
			t.Errorf("anonymized id %d assigned twice", anon)
		}
		used[anon] = true
	}

	for i := range ds.Records {
		if want := mapping[original[i].VehicleID]; ds.Records[i].VehicleID != want {
			t.Errorf("record %d vehicle id = %d, want %d", i, ds.Records[i].VehicleID, want)
		}
		if ds.Records[i].Latitude != original[i].Latitude || ds.Records[i].Timestamp != original[i].Timestamp {
			t.Errorf("record %d fields beyond the vehicle id changed", i)
		}
	}

	// Records of the same vehicle must share the new id.
	if ds.Records[0].VehicleID != ds.Records[1].VehicleID {
		t.Error("records of one vehicle received different anonymized ids")
	}
	if ds.Records[0].VehicleID == ds.Records[2].VehicleID {
		t.Error("distinct vehicles received the same anonymized id")
	}
}

func TestAnonymizeEmptyDataset(t *testing.T) {
	ds := &Dataset{}
	if mapping := Anonymize(ds); len(mapping) != 0 {
		t.Errorf("len(mapping) = %d, want 0", len(mapping))
	}
}
