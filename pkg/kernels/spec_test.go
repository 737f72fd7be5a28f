package kernels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nbkernels/nbkernels/pkg/errors"
)

func writeSpec(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "kernel.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSpec(t *testing.T) {
	path := writeSpec(t, t.TempDir(), `{
		"argv": ["python", "-m", "ipykernel_launcher", "-f", "{connection_file}"],
		"display_name": "Python 3 (ipykernel)",
		"language": "python"
	}`)

	spec, err := LoadSpec(path)
	if err != nil {
		t.Fatalf("LoadSpec error: %v", err)
	}
	if spec.DisplayName != "Python 3 (ipykernel)" {
		t.Errorf("DisplayName = %q", spec.DisplayName)
	}
	if len(spec.Argv) != 5 || spec.Argv[0] != "python" {
		t.Errorf("Argv = %v", spec.Argv)
	}
}

func TestLoadSpecMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{not json`},
		{"empty argv", `{"argv": [], "display_name": "x"}`},
		{"no display name", `{"argv": ["python"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSpec(t, t.TempDir(), tt.content)
			_, err := LoadSpec(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeMalformedKernelspec) {
				t.Errorf("code = %v, want MALFORMED_KERNELSPEC", errors.GetCode(err))
			}
		})
	}
}

func TestLoadSpecMissingFile(t *testing.T) {
	_, err := LoadSpec(filepath.Join(t.TempDir(), "kernel.json"))
	if !errors.Is(err, errors.ErrCodeIOFailure) {
		t.Errorf("code = %v, want IO_FAILURE", errors.GetCode(err))
	}
}

func TestSpecClone(t *testing.T) {
	orig := &Spec{
		Argv:     []string{"python", "-m", "x"},
		Env:      map[string]string{"A": "1"},
		Metadata: map[string]any{"k": "v"},
	}

	c := orig.Clone()
	c.Argv[0] = "changed"
	c.Env["A"] = "2"
	c.Metadata["k"] = "w"

	if orig.Argv[0] != "python" || orig.Env["A"] != "1" || orig.Metadata["k"] != "v" {
		t.Error("Clone shares state with the original")
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"uv-myproj-py", "uv-myproj-py"},
		{"venv-my proj-py", "venv-my_proj-py"},
		{"uv-a/b:c-py", "uv-a_b_c-py"},
		{"x.y_z-1", "x.y_z-1"},
	}

	for _, tt := range tests {
		if got := CleanName(tt.in); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindSpecDirs(t *testing.T) {
	env := t.TempDir()

	if dirs := FindSpecDirs(env); dirs != nil {
		t.Errorf("FindSpecDirs of bare dir = %v, want nil", dirs)
	}

	base := filepath.Join(env, "share", "jupyter", "kernels")
	writeSpec(t, filepath.Join(base, "python3"), `{"argv":["python"],"display_name":"Python 3"}`)
	writeSpec(t, filepath.Join(base, "ir"), `{"argv":["R"],"display_name":"R"}`)
	// Directory without kernel.json is ignored.
	if err := os.MkdirAll(filepath.Join(base, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	dirs := FindSpecDirs(env)
	if len(dirs) != 2 {
		t.Fatalf("FindSpecDirs = %v, want 2 entries", dirs)
	}
	// Sorted by path.
	if filepath.Base(dirs[0]) != "ir" || filepath.Base(dirs[1]) != "python3" {
		t.Errorf("FindSpecDirs order = %v", dirs)
	}
}
