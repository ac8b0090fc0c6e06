package thesis

import "github.com/GyroZepelix/thesis-archive/internal/search"

// PostFilter keeps the records that satisfy pred, evaluated in memory. It is
// used for filters the storage query cannot express, such as a program that
// lives on the joined author profile. A nil pred passes every record through.
// The input slice is never modified.
func PostFilter(records []Record, pred search.Predicate) []Record {
	if pred == nil {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if pred.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
