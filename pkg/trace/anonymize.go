package trace

import "math/rand"

// Anonymize replaces every vehicle id in the dataset with a value drawn
// from a shuffled 0..n-1 sequence, where n is the number of distinct
// vehicles. All records of the same vehicle receive the same new id. It
// returns the original-to-anonymized mapping so the caller can persist it;
// without the mapping the original identities are unrecoverable from the
// output.
func Anonymize(ds *Dataset) map[int]int {
	var order []int
	seen := make(map[int]bool)
	for i := range ds.Records {
		id := ds.Records[i].VehicleID
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	shuffled := rand.Perm(len(order))
	mapping := make(map[int]int, len(order))
	for i, id := range order {
		mapping[id] = shuffled[i]
	}

	for i := range ds.Records {
		ds.Records[i].VehicleID = mapping[ds.Records[i].VehicleID]
	}
	return mapping
}
