package kernels

import "github.com/nbkernels/nbkernels/pkg/envs"

// Entry is one kernel in the merged catalog. Entries are derived at
// synthesis time and never persisted; Exists and HasKernelspec are computed
// fresh by stat-ing the filesystem.
type Entry struct {
	// Name is the unique kernel identifier (e.g. "uv-myproj-py").
	Name string `json:"name"`

	// DisplayName is the human-readable name shown by the front end,
	// unique across the whole catalog.
	DisplayName string `json:"display_name"`

	Provenance envs.Provenance `json:"provenance"`

	// EnvironmentName is the resolved environment display name.
	EnvironmentName string `json:"environment_name"`

	// EnvironmentPath is the environment directory; empty for delegated
	// entries whose environment is not tracked here.
	EnvironmentPath string `json:"environment_path,omitempty"`

	// ResourceDir is the kernelspec directory the entry was built from.
	// Duplicate elimination during the merge keys on this, not on names.
	ResourceDir string `json:"resource_dir,omitempty"`

	Exists        bool `json:"exists"`
	HasKernelspec bool `json:"has_kernelspec"`

	// Active marks the entry matching the currently active interpreter.
	// It is always promoted to the first catalog position.
	Active bool `json:"active"`

	// Spec is the rewritten launch descriptor; nil when the environment
	// has no kernelspec.
	Spec *Spec `json:"spec,omitempty"`
}

// Catalog is the synthesized, ordered, duplicate-free kernel mapping.
type Catalog struct {
	entries []Entry
	byName  map[string]int
}

// NewCatalog builds a catalog preserving the given entry order.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.byName[e.Name] = i
	}
	return c
}

// Entries returns all entries in display order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Get returns the entry with the given kernel name.
func (c *Catalog) Get(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Names returns kernel names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
