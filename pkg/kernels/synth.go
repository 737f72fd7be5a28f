package kernels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nbkernels/nbkernels/pkg/envs"
)

// condaVars are inherited variables that would cause the delegated
// provenance's activation machinery to misfire inside a uv/venv kernel.
// They are cleared in every rewritten descriptor.
var condaVars = []string{
	"CONDA_PREFIX",
	"CONDA_DEFAULT_ENV",
	"CONDA_PROMPT_MODIFIER",
	"CONDA_SHLVL",
	"CONDA_PYTHON_EXE",
	"CONDA_EXE",
}

// Options tune catalog synthesis.
type Options struct {
	// NameFormat is the display name template; see config.DefaultNameFormat.
	NameFormat string

	// RequireKernelspec excludes environments without a launch descriptor
	// instead of including them flagged HasKernelspec=false.
	RequireKernelspec bool

	// EnvOnly drops the delegated catalog entirely, listing only
	// registered environments.
	EnvOnly bool

	// EnvFilter excludes environments whose absolute path matches any
	// pattern.
	EnvFilter []*regexp.Regexp

	// ActiveEnv is the path of the currently active environment, if any.
	// Its kernel is promoted to the first catalog position.
	ActiveEnv string
}

// Synthesizer builds the merged kernel catalog from the registry store and
// the optional delegated provider.
type Synthesizer struct {
	store    *envs.Store
	provider Provider
	opts     Options
	logger   *log.Logger
}

// NewSynthesizer creates a synthesizer. provider may be nil, in which case
// the delegated catalog is empty.
func NewSynthesizer(store *envs.Store, provider Provider, opts Options, logger *log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synthesizer{store: store, provider: provider, opts: opts, logger: logger}
}

// Synthesize produces the ordered, duplicate-free catalog. A malformed
// individual descriptor is logged and skipped; only registry read failures
// abort synthesis.
func (s *Synthesizer) Synthesize(ctx context.Context) (*Catalog, error) {
	records, err := s.store.ReadAll(envs.ReadOptions{})
	if err != nil {
		return nil, err
	}

	// Liveness: keep only paths that still qualify under the same
	// predicate the scanner uses, then filter.
	live := records[:0:0]
	for _, rec := range records {
		if !envs.IsEnvironment(rec.Path) {
			s.logger.Debug("synthesis: stale registry entry skipped", "path", rec.Path)
			continue
		}
		if s.filtered(rec.Path) {
			continue
		}
		live = append(live, rec)
	}

	// Global sanitize pass: kernel names derive from environment names, so
	// uniqueness must hold across all provenances combined. Resolutions are
	// used for this synthesis cycle only; the registry file stays the sole
	// source of truth.
	sanitized, _ := envs.Sanitize(live)

	var entries []Entry
	for _, rec := range sanitized {
		entries = append(entries, s.entriesForEnvironment(rec)...)
	}

	entries = s.mergeDelegated(ctx, entries)
	entries = uniqueNames(entries)
	Order(entries)

	return NewCatalog(entries), nil
}

// entriesForEnvironment builds the entries for one registered environment.
func (s *Synthesizer) entriesForEnvironment(rec envs.Record) []Entry {
	envName := rec.DisplayName()
	active := s.opts.ActiveEnv != "" && rec.Path == s.opts.ActiveEnv

	dirs := FindSpecDirs(rec.Path)
	if len(dirs) == 0 {
		if s.opts.RequireKernelspec {
			s.logger.Debug("synthesis: environment without kernelspec excluded", "path", rec.Path)
			return nil
		}
		// Included without a launcher so the front end can surface it.
		return []Entry{{
			Name:            CleanName(string(rec.Provenance) + "-" + envName),
			DisplayName:     s.formatDisplayName("Python", envName, "", "", rec.Provenance, active),
			Provenance:      rec.Provenance,
			EnvironmentName: envName,
			EnvironmentPath: rec.Path,
			Exists:          true,
			HasKernelspec:   false,
			Active:          active,
		}}
	}

	var entries []Entry
	for _, dir := range dirs {
		spec, err := LoadSpec(filepath.Join(dir, "kernel.json"))
		if err != nil {
			s.logger.Warn("synthesis: skipping malformed kernelspec", "dir", dir, "err", err)
			continue
		}

		kernelDir := filepath.Base(dir)
		rewritten := RewriteForEnvironment(spec, rec, active)
		display := s.formatDisplayName(languageLabel(spec), envName, kernelDir, spec.DisplayName, rec.Provenance, active)
		rewritten.DisplayName = display

		entries = append(entries, Entry{
			Name:            CleanName(string(rec.Provenance) + "-" + envName + "-" + normalizeKernelDir(kernelDir)),
			DisplayName:     display,
			Provenance:      rec.Provenance,
			EnvironmentName: envName,
			EnvironmentPath: rec.Path,
			ResourceDir:     dir,
			Exists:          true,
			HasKernelspec:   true,
			Active:          active,
			Spec:            rewritten,
		})
	}
	return entries
}

// mergeDelegated merges the delegated provenance's catalog. Any internally
// synthesized entry whose resolved launch directory coincides with a
// delegated entry's is dropped in favor of the delegated entry: duplicate
// elimination by resource identity, not by name.
func (s *Synthesizer) mergeDelegated(ctx context.Context, entries []Entry) []Entry {
	if s.provider == nil || s.opts.EnvOnly {
		return entries
	}

	delegated, err := s.provider.GetCatalog(ctx)
	if err != nil {
		s.logger.Warn("delegated catalog unavailable", "err", err)
		return entries
	}

	delegatedDirs := make(map[string]bool, len(delegated))
	for _, d := range delegated {
		if d.ResourceDir != "" {
			delegatedDirs[d.ResourceDir] = true
		}
	}

	merged := entries[:0:0]
	for _, e := range entries {
		if e.ResourceDir != "" && delegatedDirs[e.ResourceDir] {
			s.logger.Debug("synthesis: duplicate dropped in favor of delegated entry", "resource_dir", e.ResourceDir)
			continue
		}
		merged = append(merged, e)
	}

	// Deterministic merge order regardless of map iteration.
	names := make([]string, 0, len(delegated))
	for name := range delegated {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := delegated[name]
		if s.filtered(d.EnvironmentPath) {
			continue
		}
		prov := d.Provenance
		if !prov.Valid() {
			prov = envs.ProvenanceSystem
		}
		active := s.opts.ActiveEnv != "" && d.EnvironmentPath == s.opts.ActiveEnv
		exists := true
		if d.EnvironmentPath != "" {
			if info, err := os.Stat(d.EnvironmentPath); err != nil || !info.IsDir() {
				exists = false
			}
		}

		merged = append(merged, Entry{
			Name:            name,
			DisplayName:     d.Spec.DisplayName,
			Provenance:      prov,
			EnvironmentName: d.EnvironmentName,
			EnvironmentPath: d.EnvironmentPath,
			ResourceDir:     d.ResourceDir,
			Exists:          exists,
			HasKernelspec:   true,
			Active:          active,
			Spec:            d.Spec,
		})
	}

	return merged
}

func (s *Synthesizer) filtered(path string) bool {
	if path == "" {
		return false
	}
	for _, pat := range s.opts.EnvFilter {
		if pat.MatchString(path) {
			return true
		}
	}
	return false
}

// formatDisplayName expands the name format template. The active
// environment's kernel gets a trailing marker.
func (s *Synthesizer) formatDisplayName(language, environment, kernel, original string, prov envs.Provenance, active bool) string {
	format := s.opts.NameFormat
	if format == "" {
		format = "{language} [{provenance}: {environment}]"
	}

	r := strings.NewReplacer(
		"{language}", language,
		"{environment}", environment,
		"{kernel}", kernel,
		"{display_name}", original,
		"{provenance}", string(prov),
	)
	name := r.Replace(format)
	if active {
		name += " *"
	}
	return name
}

// languageLabel derives the language portion of a display name. Python
// descriptors advertise versioned display names ("Python 3 (ipykernel)");
// those collapse to plain "Python".
func languageLabel(spec *Spec) string {
	if strings.HasPrefix(spec.DisplayName, "Python") {
		return "Python"
	}
	if spec.Language != "" {
		return spec.Language
	}
	return spec.DisplayName
}

// RewriteForEnvironment points a descriptor at the environment's own
// interpreter, puts the environment's executable directory first on the
// search path (preserving externally managed tool directories after it),
// and clears inherited variables that would misfire the delegated
// provenance's activation machinery.
func RewriteForEnvironment(spec *Spec, rec envs.Record, active bool) *Spec {
	c := spec.Clone()

	if interp := envs.InterpreterPath(rec.Path); interp != "" && len(c.Argv) > 0 {
		c.Argv[0] = interp
	}

	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	// ${PATH} is interpolated by the kernel launcher at start time, so the
	// inherited search path stays behind the environment's own bin dir.
	c.Env["PATH"] = envs.BinDir(rec.Path) + string(os.PathListSeparator) + "${PATH}"
	c.Env["VIRTUAL_ENV"] = rec.Path
	for _, v := range condaVars {
		c.Env[v] = ""
	}

	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata["environment_name"] = rec.DisplayName()
	c.Metadata["environment_path"] = rec.Path
	c.Metadata["provenance"] = string(rec.Provenance)
	c.Metadata["is_active"] = active

	return c
}

// uniqueNames guarantees kernel-name uniqueness after the merge by suffixing
// later entries with the smallest unused numeric suffix. Delegated and
// internal names rarely collide, but a collision must never drop an entry.
func uniqueNames(entries []Entry) []Entry {
	taken := make(map[string]bool, len(entries))
	for i := range entries {
		name := entries[i].Name
		resolved := name
		for n := 1; taken[resolved]; n++ {
			resolved = fmt.Sprintf("%s_%d", name, n)
		}
		taken[resolved] = true
		entries[i].Name = resolved
	}
	return entries
}
