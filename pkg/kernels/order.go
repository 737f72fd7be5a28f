package kernels

import "sort"

// Order applies the final catalog ordering in place: entries group by
// provenance priority (delegated first, then fast-installer, then standard,
// then unaffiliated system entries) and sort alphabetically by display name
// within a group. The entry matching the currently active interpreter, if
// any, is promoted to the very first position regardless of provenance.
func Order(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].Provenance.Priority(), entries[j].Provenance.Priority()
		if pi != pj {
			return pi < pj
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	for i, e := range entries {
		if e.Active {
			promoted := entries[i]
			copy(entries[1:i+1], entries[:i])
			entries[0] = promoted
			break
		}
	}
}
