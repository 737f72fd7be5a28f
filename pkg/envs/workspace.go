package envs

import (
	"os"
	"path/filepath"
	"strings"
)

// condaInstallNames are canonical root directory names of global conda
// installations. A path with one of these names and a conda-meta directory
// is treated as a global install even outside the workspace.
var condaInstallNames = map[string]bool{
	"anaconda2":  true,
	"anaconda3":  true,
	"miniconda2": true,
	"miniconda3": true,
	"miniforge3": true,
	"mambaforge": true,
	"micromamba": true,
}

// GlobalEnvironmentLister reports the delegated provenance's own environment
// list. It is an optional capability: a nil lister simply means no externally
// reported environments.
type GlobalEnvironmentLister interface {
	ListGlobalEnvironments() []string
}

// Guard enforces the workspace boundary policy on mutating operations.
// Read-only listing is never restricted.
type Guard struct {
	// WorkspaceRoot is the directory boundary within which registration is
	// permitted.
	WorkspaceRoot string

	// Lister supplies the delegated provenance's externally reported
	// environments, which are permitted even outside the workspace. May be
	// nil.
	Lister GlobalEnvironmentLister
}

// Permits reports whether a mutating operation on path is allowed: the path
// is a descendant of the workspace root, or it is a global installation of
// the delegated provenance.
func (g *Guard) Permits(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	if IsWithin(abs, g.WorkspaceRoot) {
		return true
	}

	return g.isGlobalCondaInstall(abs)
}

// IsWithin reports whether path is root itself or a lexical descendant of
// root. Both arguments are made absolute and cleaned before comparison.
func IsWithin(path, root string) bool {
	if root == "" {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// isGlobalCondaInstall reports whether path is a global installation of the
// delegated provenance: it carries the conda metadata marker directory, and
// either its root directory name is a canonical install name or the
// delegated provenance itself reports it.
func (g *Guard) isGlobalCondaInstall(path string) bool {
	meta, err := os.Stat(filepath.Join(path, "conda-meta"))
	if err != nil || !meta.IsDir() {
		return false
	}

	if condaInstallNames[strings.ToLower(filepath.Base(path))] {
		return true
	}

	if g.Lister != nil {
		for _, envPath := range g.Lister.ListGlobalEnvironments() {
			if cleaned, err := filepath.Abs(envPath); err == nil && cleaned == path {
				return true
			}
		}
	}

	return false
}
