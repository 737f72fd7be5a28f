// Package envs implements the environment registry core: durable records of
// interpreter environments, the qualification predicate that classifies
// candidate directories, deterministic display-name resolution, bounded
// directory scanning, and the workspace boundary guard.
//
// Three provenances exist. Conda environments are delegated: their catalog is
// supplied by an external provider and never persisted here. UV and venv
// environments are tracked in one text registry each, a plain line-oriented
// file of `path` or `path<TAB>custom_name` records.
package envs

// Provenance identifies the tool that created or manages an environment.
type Provenance string

const (
	// ProvenanceConda is the delegated provenance: environments managed by
	// conda, cataloged by an external provider.
	ProvenanceConda Provenance = "conda"

	// ProvenanceUV marks environments created by the uv installer.
	ProvenanceUV Provenance = "uv"

	// ProvenanceVenv marks standard virtual environments (python -m venv).
	ProvenanceVenv Provenance = "venv"

	// ProvenanceSystem marks kernels not affiliated with any registered
	// environment, e.g. a system-wide installation merged in from the
	// delegated catalog.
	ProvenanceSystem Provenance = "system"
)

// Registered returns the provenances backed by a local registry file, in the
// fixed order their registries are read during synthesis. Conda is delegated
// and has no registry of its own.
func Registered() []Provenance {
	return []Provenance{ProvenanceUV, ProvenanceVenv}
}

// Priority returns the display-ordering rank for the provenance. Lower ranks
// sort first in the merged catalog: delegated entries, then fast-installer,
// then standard, then unaffiliated system entries.
func (p Provenance) Priority() int {
	switch p {
	case ProvenanceConda:
		return 0
	case ProvenanceUV:
		return 1
	case ProvenanceVenv:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is a known provenance.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceConda, ProvenanceUV, ProvenanceVenv, ProvenanceSystem:
		return true
	}
	return false
}
