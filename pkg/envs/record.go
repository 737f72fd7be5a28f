package envs

import "path/filepath"

// Record is one persisted environment: an absolute path plus an optional
// custom display name. Identity is the path; within one provenance's
// registry paths are unique.
type Record struct {
	// Path is the absolute environment directory.
	Path string

	// CustomName is the user-chosen display name, empty if none. Name
	// conflict resolution may rewrite this field; the registry file is
	// the sole source of truth for it.
	CustomName string

	// Provenance is which registry the record came from. Not persisted in
	// the file (the file location implies it); populated on read.
	Provenance Provenance

	// Missing is set on read (with IncludeMissing) when the path no longer
	// exists on disk. Missing records are reported, never silently dropped.
	Missing bool
}

// genericEnvDirs are directory names that carry no identity of their own;
// the parent directory names the project.
var genericEnvDirs = map[string]bool{
	".venv": true,
	"venv":  true,
	".env":  true,
	"env":   true,
}

// DisplayName returns the effective display name: the custom name when set,
// else a name derived from the path.
func (r Record) DisplayName() string {
	if r.CustomName != "" {
		return r.CustomName
	}
	return DeriveName(r.Path)
}

// DeriveName derives a display name from an environment path: the last path
// segment, or the parent segment when the last one is a generic virtual
// environment directory name like ".venv".
func DeriveName(path string) string {
	base := filepath.Base(path)
	if genericEnvDirs[base] {
		parent := filepath.Base(filepath.Dir(path))
		if parent != "." && parent != string(filepath.Separator) {
			return parent
		}
	}
	return base
}
