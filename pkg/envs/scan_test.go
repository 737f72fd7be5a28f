package envs

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestScanFindsEnvironments(t *testing.T) {
	root := t.TempDir()
	venv := makeEnv(t, filepath.Join(root, "project1", ".venv"), false)
	uv := makeEnv(t, filepath.Join(root, "project2", ".venv"), true)

	s := NewScanner(nil, nil, nil)
	found, err := s.Scan(root, 3)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(found) != 2 {
		t.Fatalf("found %d candidates, want 2: %v", len(found), found)
	}
	byPath := map[string]Provenance{}
	for _, c := range found {
		byPath[c.Path] = c.Provenance
	}
	if byPath[venv] != ProvenanceVenv {
		t.Errorf("%s classified as %v, want venv", venv, byPath[venv])
	}
	if byPath[uv] != ProvenanceUV {
		t.Errorf("%s classified as %v, want uv", uv, byPath[uv])
	}
}

func TestScanRespectsDepthLimit(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d")
	makeEnv(t, filepath.Join(deep, ".venv"), false)

	s := NewScanner(nil, nil, nil)

	// Environment sits at depth 5; a depth-2 scan must not reach it.
	found, err := s.Scan(root, 2)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("depth-2 scan found %v, want none", found)
	}

	found, err = s.Scan(root, 5)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("depth-5 scan found %d, want 1", len(found))
	}
}

func TestScanSkipsConfiguredDirectories(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "node_modules", "dep", ".venv"), false)
	makeEnv(t, filepath.Join(root, ".git", "hooks", ".venv"), false)
	makeEnv(t, filepath.Join(root, "pkg.egg-info", ".venv"), false)
	wanted := makeEnv(t, filepath.Join(root, "real", ".venv"), false)

	s := NewScanner(nil, nil, nil)
	found, err := s.Scan(root, 4)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(found) != 1 || found[0].Path != wanted {
		t.Errorf("found = %v, want only %s", found, wanted)
	}
}

func TestScanExtraSkipDirs(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "target", ".venv"), false)

	s := NewScanner([]string{"target"}, nil, nil)
	found, err := s.Scan(root, 3)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("found = %v, want configured skip dir respected", found)
	}
}

func TestScanExcludePatterns(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "scratch", ".venv"), false)
	wanted := makeEnv(t, filepath.Join(root, "keep", ".venv"), false)

	s := NewScanner(nil, []*regexp.Regexp{regexp.MustCompile(`/scratch(/|$)`)}, nil)
	found, err := s.Scan(root, 3)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 1 || found[0].Path != wanted {
		t.Errorf("found = %v, want only %s", found, wanted)
	}
}

func TestScanDoesNotRecurseIntoEnvironments(t *testing.T) {
	root := t.TempDir()
	outer := makeEnv(t, filepath.Join(root, "proj", ".venv"), false)
	// A nested directory inside the environment that would itself qualify.
	makeEnv(t, filepath.Join(outer, "share", "nested"), false)

	s := NewScanner(nil, nil, nil)
	found, err := s.Scan(root, 6)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 1 || found[0].Path != outer {
		t.Errorf("found = %v, want only the outer environment", found)
	}
}

func TestScanRootItselfAnEnvironment(t *testing.T) {
	root := makeEnv(t, filepath.Join(t.TempDir(), "env"), false)

	s := NewScanner(nil, nil, nil)
	found, err := s.Scan(root, 0)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(found) != 1 || found[0].Path != root {
		t.Errorf("found = %v, want the root itself", found)
	}
}

func TestScanHasNoSideEffects(t *testing.T) {
	root := t.TempDir()
	makeEnv(t, filepath.Join(root, "p", ".venv"), false)

	before := treeState(t, root)
	s := NewScanner(nil, nil, nil)
	if _, err := s.Scan(root, 3); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	after := treeState(t, root)

	if before != after {
		t.Error("scan modified the scanned tree")
	}
}

func treeState(t *testing.T, root string) string {
	t.Helper()
	state := ""
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		state += path + "|"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return state
}
