// Package manager wires the registry store, scanner, workspace guard,
// delegated provider, and catalog memo into the single engine facade the
// CLI and server layers talk to.
package manager

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/nbkernels/nbkernels/pkg/cache"
	"github.com/nbkernels/nbkernels/pkg/config"
	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
	"github.com/nbkernels/nbkernels/pkg/kernels"
)

// Engine is the single entry point for all registry and catalog operations.
// Every successful mutation synchronously invalidates the catalog memo
// before returning, so readers never observe pre-mutation state.
type Engine struct {
	cfg      *config.Config
	store    *envs.Store
	scanner  *envs.Scanner
	guard    *envs.Guard
	provider kernels.Provider
	filters  []*regexp.Regexp
	memo     *cache.Memo[*kernels.Catalog]
	logger   *log.Logger
}

// New builds an engine from configuration, autodetecting the delegated
// provider. Absence of the delegated provenance's tooling is not an error.
func New(cfg *config.Config, logger *log.Logger) (*Engine, error) {
	var provider kernels.Provider
	if p := kernels.NewCondaProvider(logger); p != nil {
		provider = p
	}
	return NewWithProvider(cfg, provider, logger)
}

// NewWithProvider builds an engine with an explicit delegated provider.
// provider may be nil.
func NewWithProvider(cfg *config.Config, provider kernels.Provider, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.Default()
	}

	filters := make([]*regexp.Regexp, 0, len(cfg.EnvFilter))
	for _, pat := range cfg.EnvFilter {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid env_filter pattern %q", pat)
		}
		filters = append(filters, re)
	}

	var store *envs.Store
	if cfg.Registry.VenvDir != "" && cfg.Registry.UVDir != "" {
		store = envs.NewStore(cfg.Registry.VenvDir, cfg.Registry.UVDir, nil, cfg.LockTimeout(), logger)
	} else {
		var err error
		store, err = envs.DefaultStore(nil, cfg.LockTimeout(), logger)
		if err != nil {
			return nil, err
		}
	}

	root := cfg.WorkspaceRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "resolve working directory")
		}
		root = wd
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	guard := &envs.Guard{WorkspaceRoot: root}
	if provider != nil {
		guard.Lister = provider
	}

	return &Engine{
		cfg:      cfg,
		store:    store,
		scanner:  envs.NewScanner(cfg.Scan.SkipDirs, filters, logger),
		guard:    guard,
		provider: provider,
		filters:  filters,
		memo:     cache.NewMemo[*kernels.Catalog](cfg.CacheTTL(), logger),
		logger:   logger,
	}, nil
}

// WorkspaceRoot returns the directory boundary mutating operations are
// confined to.
func (e *Engine) WorkspaceRoot() string {
	return e.guard.WorkspaceRoot
}

// InvalidateCatalog discards the memoized catalog so the next read
// synthesizes fresh.
func (e *Engine) InvalidateCatalog() {
	e.memo.Invalidate()
}

// EnvironmentInfo describes one registered environment for listing.
type EnvironmentInfo struct {
	Name          string          `json:"name"`
	Provenance    envs.Provenance `json:"provenance"`
	Path          string          `json:"path"`
	CustomName    string          `json:"custom_name,omitempty"`
	Exists        bool            `json:"exists"`
	HasKernelspec bool            `json:"has_kernelspec"`
}

// ListEnvironments returns every registered environment, including ones
// whose directory has since disappeared. Listing is never restricted by the
// workspace guard. Names shown are collision-resolved the same way the
// catalog resolves them, without persisting the resolution.
func (e *Engine) ListEnvironments(ctx context.Context) ([]EnvironmentInfo, error) {
	records, err := e.store.ReadAll(envs.ReadOptions{IncludeMissing: true})
	if err != nil {
		return nil, err
	}

	sanitized, _ := envs.Sanitize(records)

	infos := make([]EnvironmentInfo, 0, len(sanitized))
	for _, rec := range sanitized {
		infos = append(infos, EnvironmentInfo{
			Name:          rec.DisplayName(),
			Provenance:    rec.Provenance,
			Path:          rec.Path,
			CustomName:    rec.CustomName,
			Exists:        !rec.Missing,
			HasKernelspec: !rec.Missing && envs.HasKernelspec(rec.Path),
		})
	}
	return infos, nil
}

// RegisterResult reports what a Register call did.
type RegisterResult struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Registered bool   `json:"registered"`
	Updated    bool   `json:"updated"`
}

// Register adds an environment to its provenance's registry, or updates its
// stored name when already present. Registering an already-registered path
// with the same name is a no-op reported as neither registered nor updated.
func (e *Engine) Register(ctx context.Context, path, name string) (*RegisterResult, error) {
	if err := errors.ValidateEnvironmentPath(path); err != nil {
		return nil, err
	}
	if name != "" {
		if err := errors.ValidateCustomName(name); err != nil {
			return nil, err
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve path %q", path)
	}

	if !e.guard.Permits(abs) {
		return nil, errors.New(errors.ErrCodeOutsideWorkspace, "%s is outside the workspace root %s", abs, e.guard.WorkspaceRoot)
	}
	if !envs.IsEnvironment(abs) {
		return nil, errors.New(errors.ErrCodeInvalidEnvironment, "%s is not an interpreter environment", abs)
	}
	if e.cfg.RequireKernelspec && !envs.HasKernelspec(abs) {
		return nil, errors.New(errors.ErrCodeMissingKernelspec, "%s has no kernelspec and strict mode is enabled", abs)
	}

	prov := envs.DetectProvenance(abs)
	result := &RegisterResult{Path: abs}

	err = e.store.WithLock(ctx, func() error {
		records, err := e.store.ReadWithOptions(prov, envs.ReadOptions{IncludeMissing: true})
		if err != nil {
			return err
		}

		idx := -1
		for i, rec := range records {
			if rec.Path == abs {
				idx = i
				break
			}
		}

		switch {
		case idx < 0:
			records = append(records, envs.Record{Path: abs, CustomName: name, Provenance: prov})
			idx = len(records) - 1
			result.Registered = true
		case name != "" && records[idx].CustomName != name:
			records[idx].CustomName = name
			result.Updated = true
		default:
			// Already registered under this name.
			result.Name = records[idx].DisplayName()
			return nil
		}

		// Eager collision resolution within this provenance's registry, so
		// an explicit name never lands as a duplicate.
		sanitized, _ := envs.Sanitize(records)
		result.Name = sanitized[idx].DisplayName()

		return e.store.Write(prov, sanitized)
	})
	if err != nil {
		return nil, err
	}

	if result.Registered || result.Updated {
		e.memo.Invalidate()
		e.logger.Info("environment registered", "path", abs, "provenance", prov, "name", result.Name, "updated", result.Updated)
	}
	return result, nil
}

// UnregisterResult reports what an Unregister call removed.
type UnregisterResult struct {
	Path         string `json:"path"`
	Unregistered bool   `json:"unregistered"`
}

// Unregister removes an environment from whichever registry holds it. The
// argument may be a path or a resolved environment name. Dead environments
// can always be unregistered.
func (e *Engine) Unregister(ctx context.Context, pathOrName string) (*UnregisterResult, error) {
	if err := errors.ValidateEnvironmentPath(pathOrName); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(pathOrName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve path %q", pathOrName)
	}
	result := &UnregisterResult{}

	err = e.store.WithLock(ctx, func() error {
		for _, prov := range envs.Registered() {
			records, err := e.store.ReadWithOptions(prov, envs.ReadOptions{IncludeMissing: true})
			if err != nil {
				return err
			}

			kept := records[:0:0]
			for _, rec := range records {
				if rec.Path == abs || rec.DisplayName() == pathOrName {
					result.Path = rec.Path
					result.Unregistered = true
					continue
				}
				kept = append(kept, rec)
			}

			if len(kept) != len(records) {
				if err := e.store.Write(prov, kept); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Unregistered {
		return nil, errors.New(errors.ErrCodeNotFound, "no registered environment matches %q", pathOrName)
	}

	e.memo.Invalidate()
	e.logger.Info("environment unregistered", "path", result.Path)
	return result, nil
}

// activeEnvironment returns the path of the environment the current process
// runs inside, if any.
func activeEnvironment() string {
	for _, v := range []string{"VIRTUAL_ENV", "CONDA_PREFIX"} {
		if p := os.Getenv(v); p != "" {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
		}
	}
	return ""
}
