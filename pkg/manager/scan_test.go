package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
)

func registryBytes(t *testing.T, eng *Engine) string {
	t.Helper()
	var all []byte
	for _, dir := range []string{eng.cfg.Registry.UVDir, eng.cfg.Registry.VenvDir} {
		data, err := os.ReadFile(filepath.Join(dir, "environments.txt"))
		if err != nil && !os.IsNotExist(err) {
			t.Fatal(err)
		}
		all = append(all, data...)
	}
	return string(all)
}

func countByAction(res *ScanResult, action ScanAction) int {
	n := 0
	for _, e := range res.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

func TestScanRegistersDiscoveredEnvironments(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	venvEnv := makeEnv(t, filepath.Join(ws, "alpha", ".venv"), false)
	uvEnv := makeEnv(t, filepath.Join(ws, "beta", ".venv"), true)

	res, err := eng.Scan(context.Background(), ws, 0, false)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if res.Summary.Add != 2 || res.Summary.Keep != 0 || res.Summary.Remove != 0 {
		t.Errorf("summary = %+v, want 2 adds", res.Summary)
	}

	infos, err := eng.ListEnvironments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	byPath := map[string]envs.Provenance{}
	for _, info := range infos {
		byPath[info.Path] = info.Provenance
	}
	if byPath[venvEnv] != envs.ProvenanceVenv || byPath[uvEnv] != envs.ProvenanceUV {
		t.Errorf("registered = %v", byPath)
	}
}

func TestScanDryRunLeavesRegistryUntouched(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	registered := makeEnv(t, filepath.Join(ws, "keepme", ".venv"), false)
	if _, err := eng.Register(context.Background(), registered, ""); err != nil {
		t.Fatal(err)
	}
	makeEnv(t, filepath.Join(ws, "newone", ".venv"), false)

	before := registryBytes(t, eng)

	res, err := eng.Scan(context.Background(), ws, 0, true)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if !res.DryRun {
		t.Error("DryRun flag not set")
	}
	if res.Summary.Add != 1 || res.Summary.Keep != 1 {
		t.Errorf("summary = %+v, want 1 add and 1 keep", res.Summary)
	}

	if after := registryBytes(t, eng); after != before {
		t.Errorf("dry run changed registry:\nbefore: %q\nafter:  %q", before, after)
	}
}

func TestScanRemovesDeadEnvironmentsUnderRoot(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	dead := makeEnv(t, filepath.Join(ws, "dead", ".venv"), false)
	alive := makeEnv(t, filepath.Join(ws, "alive", ".venv"), false)
	for _, env := range []string{dead, alive} {
		if _, err := eng.Register(context.Background(), env, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.RemoveAll(dead); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Scan(context.Background(), ws, 0, false)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if res.Summary.Remove != 1 || res.Summary.Keep != 1 {
		t.Errorf("summary = %+v, want 1 remove and 1 keep", res.Summary)
	}

	infos, err := eng.ListEnvironments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Path != alive {
		t.Errorf("list = %+v, want only the alive environment", infos)
	}
}

func TestScanRemovesDisqualifiedEnvironments(t *testing.T) {
	// The directory survives but its interpreter is gone, so the
	// registration no longer points at a usable environment.
	eng, ws := newTestEngine(t, nil)
	sick := makeEnv(t, filepath.Join(ws, "sick", ".venv"), false)
	alive := makeEnv(t, filepath.Join(ws, "alive", ".venv"), false)
	for _, env := range []string{sick, alive} {
		if _, err := eng.Register(context.Background(), env, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.RemoveAll(filepath.Join(sick, "bin")); err != nil {
		t.Fatal(err)
	}

	res, err := eng.Scan(context.Background(), ws, 0, false)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if res.Summary.Remove != 1 || res.Summary.Keep != 1 {
		t.Errorf("summary = %+v, want 1 remove and 1 keep", res.Summary)
	}

	infos, err := eng.ListEnvironments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Path != alive {
		t.Errorf("list = %+v, want only the alive environment", infos)
	}
}

func TestScanNeverTouchesRegistrationsOutsideRoot(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	inside := filepath.Join(ws, "inside")
	outside := filepath.Join(ws, "outside")
	outsideEnv := makeEnv(t, filepath.Join(outside, "proj", ".venv"), false)
	if _, err := eng.Register(context.Background(), outsideEnv, ""); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(outsideEnv); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(inside, 0o755); err != nil {
		t.Fatal(err)
	}

	// Scanning a sibling subtree must not reap the dead registration.
	res, err := eng.Scan(context.Background(), inside, 0, false)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if res.Summary.Remove != 0 {
		t.Errorf("summary = %+v, want no removals outside the scan root", res.Summary)
	}

	infos, err := eng.ListEnvironments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Exists {
		t.Errorf("list = %+v, want the dead registration preserved", infos)
	}
}

func TestScanRehomesRecreatedEnvironment(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	env := makeEnv(t, filepath.Join(ws, "proj", ".venv"), false)
	if _, err := eng.Register(context.Background(), env, "proj"); err != nil {
		t.Fatal(err)
	}

	// Recreated with the fast installer: same path, new provenance.
	if err := os.RemoveAll(env); err != nil {
		t.Fatal(err)
	}
	makeEnv(t, env, true)

	res, err := eng.Scan(context.Background(), ws, 0, false)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if countByAction(res, ScanUpdate) != 1 {
		t.Errorf("entries = %+v, want one update", res.Entries)
	}

	infos, err := eng.ListEnvironments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Provenance != envs.ProvenanceUV {
		t.Errorf("list = %+v, want the record moved to the uv registry", infos)
	}
	if infos[0].CustomName != "proj" {
		t.Errorf("custom name = %q, want preserved across the move", infos[0].CustomName)
	}
}

func TestScanOutsideWorkspace(t *testing.T) {
	eng, _ := newTestEngine(t, nil)
	elsewhere := t.TempDir()
	makeEnv(t, filepath.Join(elsewhere, "proj", ".venv"), false)

	_, err := eng.Scan(context.Background(), elsewhere, 0, false)
	if !errors.Is(err, errors.ErrCodeOutsideWorkspace) {
		t.Errorf("code = %v, want OUTSIDE_WORKSPACE", errors.GetCode(err))
	}

	// Dry run is read-only and therefore unrestricted.
	res, err := eng.Scan(context.Background(), elsewhere, 0, true)
	if err != nil {
		t.Fatalf("dry run error: %v", err)
	}
	if res.Summary.Add != 1 {
		t.Errorf("summary = %+v, want the candidate reported", res.Summary)
	}
}

func TestScanIsIdempotent(t *testing.T) {
	eng, ws := newTestEngine(t, nil)
	makeEnv(t, filepath.Join(ws, "one", ".venv"), false)
	makeEnv(t, filepath.Join(ws, "two", ".venv"), true)

	if _, err := eng.Scan(context.Background(), ws, 0, false); err != nil {
		t.Fatal(err)
	}
	before := registryBytes(t, eng)

	res, err := eng.Scan(context.Background(), ws, 0, false)
	if err != nil {
		t.Fatalf("second scan error: %v", err)
	}
	if res.Summary.Add != 0 || res.Summary.Keep != 2 {
		t.Errorf("summary = %+v, want all keeps", res.Summary)
	}
	if after := registryBytes(t, eng); after != before {
		t.Errorf("idempotent rescan changed registry:\nbefore: %q\nafter:  %q", before, after)
	}
}
