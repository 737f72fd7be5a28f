package envs

import "fmt"

// Sanitize repairs duplicate display names in records, deterministically.
//
// Records are visited in input (file) order. Each record's candidate name is
// its custom name if present, else the name derived from its path. On a
// collision with an already-assigned name, the smallest unused numeric suffix
// (_1, _2, ...) is appended and the resolved name is written back into the
// record's CustomName; such records are returned in changed.
//
// Given the same input order and names, Sanitize always produces the same
// assignment, and running it on already-sanitized records is a no-op.
//
// It runs in two places: eagerly when a caller registers an explicit custom
// name (against the provenance's own registry only), and lazily on every
// synthesis of the merged catalog (across all provenances combined, since
// kernel names are globally unique).
func Sanitize(records []Record) (sanitized []Record, changed []Record) {
	assigned := make(map[string]bool, len(records))
	sanitized = make([]Record, len(records))

	for i, rec := range records {
		candidate := rec.DisplayName()
		resolved := candidate
		for n := 1; assigned[resolved]; n++ {
			resolved = fmt.Sprintf("%s_%d", candidate, n)
		}
		assigned[resolved] = true

		if resolved != candidate {
			rec.CustomName = resolved
			changed = append(changed, rec)
		}
		sanitized[i] = rec
	}

	return sanitized, changed
}
