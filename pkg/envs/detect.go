package envs

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// IsEnvironment reports whether dir qualifies as an interpreter environment:
// a directory containing an interpreter executable at the conventional
// relative location for a virtual environment.
func IsEnvironment(dir string) bool {
	return InterpreterPath(dir) != ""
}

// InterpreterPath returns the environment's interpreter executable, or ""
// when dir does not qualify as an environment.
func InterpreterPath(dir string) string {
	candidates := []string{
		filepath.Join(dir, "bin", "python"),
		filepath.Join(dir, "Scripts", "python.exe"),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// BinDir returns the environment's executable directory (bin/ on Unix,
// Scripts/ on Windows).
func BinDir(dir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "Scripts")
	}
	return filepath.Join(dir, "bin")
}

// KernelsDir returns the conventional nested location of launch descriptors
// inside an environment.
func KernelsDir(dir string) string {
	return filepath.Join(dir, "share", "jupyter", "kernels")
}

// DetectProvenance classifies a qualifying environment as uv or venv by
// inspecting pyvenv.cfg for the installer-identifying marker line
// ("uv = <version>"). Anything without the marker is a standard venv.
func DetectProvenance(dir string) Provenance {
	if IsUVEnvironment(dir) {
		return ProvenanceUV
	}
	return ProvenanceVenv
}

// IsUVEnvironment reports whether the environment at dir was created by uv.
func IsUVEnvironment(dir string) bool {
	f, err := os.Open(filepath.Join(dir, "pyvenv.cfg"))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, _, found := strings.Cut(scanner.Text(), "=")
		if found && strings.TrimSpace(key) == "uv" {
			return true
		}
	}
	return false
}

// HasKernelspec reports whether the environment at dir carries at least one
// launch descriptor under share/jupyter/kernels/*/kernel.json.
func HasKernelspec(dir string) bool {
	entries, err := os.ReadDir(KernelsDir(dir))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		spec := filepath.Join(KernelsDir(dir), e.Name(), "kernel.json")
		if _, err := os.Stat(spec); err == nil {
			return true
		}
	}
	return false
}
