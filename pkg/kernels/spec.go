// Package kernels synthesizes the unified kernel catalog: launch descriptors
// discovered inside registered environments are rewritten for their
// environment, merged with the delegated provenance's externally supplied
// catalog, deduplicated by resource identity, and given a deterministic
// total ordering.
package kernels

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
)

// Spec is a kernel launch descriptor: the serialized command line and
// environment-variable bundle used to start a kernel process. It mirrors the
// kernel.json wire format.
type Spec struct {
	Argv          []string          `json:"argv"`
	DisplayName   string            `json:"display_name"`
	Language      string            `json:"language,omitempty"`
	InterruptMode string            `json:"interrupt_mode,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
}

// Clone returns a deep copy so rewrites never leak into a shared Spec.
func (s *Spec) Clone() *Spec {
	c := *s
	c.Argv = append([]string(nil), s.Argv...)
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	if s.Metadata != nil {
		c.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// LoadSpec reads and validates a kernel.json file. Malformed descriptors
// return a MALFORMED_KERNELSPEC error; callers log and skip the entry, so
// one bad file never aborts synthesis of the rest of the catalog.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "read kernelspec %s", path)
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedKernelspec, err, "parse kernelspec %s", path)
	}
	if len(spec.Argv) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedKernelspec, "kernelspec %s has empty argv", path)
	}
	if spec.DisplayName == "" {
		return nil, errors.New(errors.ErrCodeMalformedKernelspec, "kernelspec %s has no display_name", path)
	}

	return &spec, nil
}

// FindSpecDirs returns the kernelspec resource directories inside an
// environment ({env}/share/jupyter/kernels/<name>), sorted by name.
func FindSpecDirs(envPath string) []string {
	entries, err := os.ReadDir(envs.KernelsDir(envPath))
	if err != nil {
		return nil
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(envs.KernelsDir(envPath), e.Name())
		if _, err := os.Stat(filepath.Join(dir, "kernel.json")); err == nil {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// invalidNameChars matches everything Jupyter forbids in a kernel name.
var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// CleanName replaces characters that are invalid in a kernel name.
func CleanName(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}

// normalizeKernelDir maps common kernel directory names to their short form
// used when building unique kernel names.
func normalizeKernelDir(name string) string {
	switch name {
	case "python2", "python3":
		return "py"
	case "ir":
		return "r"
	default:
		return name
	}
}
