package manager

import (
	"context"
	"path/filepath"

	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
)

// ScanAction classifies what a scan did (or would do) with one environment.
type ScanAction string

const (
	// ScanAdd is a discovered environment not yet registered.
	ScanAdd ScanAction = "add"
	// ScanUpdate is a registered environment whose stored record changed:
	// a name collision was resolved or its installer provenance moved.
	ScanUpdate ScanAction = "update"
	// ScanKeep is a registered environment confirmed alive, untouched.
	ScanKeep ScanAction = "keep"
	// ScanRemove is a registered environment under the scan root whose
	// directory no longer qualifies.
	ScanRemove ScanAction = "remove"
)

// ScanEntry is one environment a scan touched.
type ScanEntry struct {
	Action     ScanAction      `json:"action"`
	Name       string          `json:"name"`
	Provenance envs.Provenance `json:"provenance"`
	Path       string          `json:"path"`
}

// ScanSummary counts scan entries by action.
type ScanSummary struct {
	Add    int `json:"add"`
	Update int `json:"update"`
	Keep   int `json:"keep"`
	Remove int `json:"remove"`
}

// ScanResult is the outcome of a Scan call.
type ScanResult struct {
	Entries []ScanEntry `json:"entries"`
	Summary ScanSummary `json:"summary"`
	DryRun  bool        `json:"dry_run"`
}

// Scan walks root for interpreter environments and reconciles the registries
// with what it finds: new environments are registered, dead registered
// environments under root are dropped, and stored names are collision
// resolved. With dryRun the registry files are left byte for byte untouched
// and the result reports what a real run would do.
//
// Registered environments outside root are never touched, dead or not.
func (e *Engine) Scan(ctx context.Context, root string, maxDepth int, dryRun bool) (*ScanResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve scan root %q", root)
	}
	if !dryRun && !e.guard.Permits(absRoot) {
		return nil, errors.New(errors.ErrCodeOutsideWorkspace, "%s is outside the workspace root %s", absRoot, e.guard.WorkspaceRoot)
	}
	if maxDepth <= 0 {
		maxDepth = e.cfg.Scan.MaxDepth
	}

	candidates, err := e.scanner.Scan(absRoot, maxDepth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "scan %s", absRoot)
	}

	candidateByPath := make(map[string]envs.Candidate, len(candidates))
	for _, c := range candidates {
		candidateByPath[c.Path] = c
	}

	result := &ScanResult{DryRun: dryRun}
	next := make(map[envs.Provenance][]envs.Record)
	matched := make(map[string]bool)
	entryIdx := make(map[string]int)

	record := func(action ScanAction, rec envs.Record) {
		entryIdx[rec.Path] = len(result.Entries)
		result.Entries = append(result.Entries, ScanEntry{
			Action:     action,
			Name:       rec.DisplayName(),
			Provenance: rec.Provenance,
			Path:       rec.Path,
		})
	}

	// Reconcile existing registrations against the candidate set, keeping
	// each registry's file order for surviving records.
	for _, prov := range envs.Registered() {
		records, err := e.store.ReadWithOptions(prov, envs.ReadOptions{IncludeMissing: true})
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			c, inScan := candidateByPath[rec.Path]
			switch {
			case inScan && c.Provenance == prov:
				rec.Missing = false
				next[prov] = append(next[prov], rec)
				matched[rec.Path] = true
				record(ScanKeep, rec)
			case inScan:
				// Recreated with a different installer; re-home the record.
				rec.Missing = false
				rec.Provenance = c.Provenance
				next[c.Provenance] = append(next[c.Provenance], rec)
				matched[rec.Path] = true
				record(ScanUpdate, rec)
			case envs.IsWithin(rec.Path, absRoot) && (rec.Missing || !envs.IsEnvironment(rec.Path)):
				// Gone, or the directory survives but the interpreter does
				// not. Either way it no longer qualifies.
				record(ScanRemove, rec)
			default:
				next[prov] = append(next[prov], rec)
			}
		}
	}

	// Newly discovered environments, in scanner (path-sorted) order.
	for _, c := range candidates {
		if matched[c.Path] {
			continue
		}
		rec := envs.Record{Path: c.Path, Provenance: c.Provenance}
		next[c.Provenance] = append(next[c.Provenance], rec)
		record(ScanAdd, rec)
	}

	// Collision resolution within each provenance. A kept record whose
	// stored name had to change is a registry update.
	for _, prov := range envs.Registered() {
		sanitized, changed := envs.Sanitize(next[prov])
		next[prov] = sanitized
		for _, ch := range changed {
			i, ok := entryIdx[ch.Path]
			if !ok {
				continue
			}
			result.Entries[i].Name = ch.DisplayName()
			if result.Entries[i].Action == ScanKeep {
				result.Entries[i].Action = ScanUpdate
			}
		}
	}

	for _, entry := range result.Entries {
		switch entry.Action {
		case ScanAdd:
			result.Summary.Add++
		case ScanUpdate:
			result.Summary.Update++
		case ScanKeep:
			result.Summary.Keep++
		case ScanRemove:
			result.Summary.Remove++
		}
	}

	if dryRun {
		return result, nil
	}

	mutated := result.Summary.Add+result.Summary.Update+result.Summary.Remove > 0
	if mutated {
		err = e.store.WithLock(ctx, func() error {
			for _, prov := range envs.Registered() {
				if err := e.store.Write(prov, next[prov]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		e.memo.Invalidate()
	}

	e.logger.Info("scan complete", "root", absRoot,
		"add", result.Summary.Add, "update", result.Summary.Update,
		"keep", result.Summary.Keep, "remove", result.Summary.Remove,
		"dry_run", dryRun)
	return result, nil
}
