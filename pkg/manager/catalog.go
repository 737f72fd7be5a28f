package manager

import (
	"context"

	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
	"github.com/nbkernels/nbkernels/pkg/kernels"
)

// Catalog returns the merged kernel catalog, synthesizing it when the memo
// is cold or has been invalidated by a mutation.
func (e *Engine) Catalog(ctx context.Context) (*kernels.Catalog, error) {
	return e.memo.GetOrCompute(ctx, func(ctx context.Context) (*kernels.Catalog, error) {
		synth := kernels.NewSynthesizer(e.store, e.provider, kernels.Options{
			NameFormat:        e.cfg.NameFormat,
			RequireKernelspec: e.cfg.RequireKernelspec,
			EnvOnly:           e.cfg.EnvOnly,
			EnvFilter:         e.filters,
			ActiveEnv:         activeEnvironment(),
		}, e.logger)
		return synth.Synthesize(ctx)
	})
}

// KernelSpecRef pairs a kernel name with the directory its launch
// descriptor lives in.
type KernelSpecRef struct {
	Name        string `json:"name"`
	ResourceDir string `json:"resource_dir"`
}

// FindKernelSpecs returns kernel names and resource directories in catalog
// order. Entries without a launch descriptor are omitted.
func (e *Engine) FindKernelSpecs(ctx context.Context) ([]KernelSpecRef, error) {
	catalog, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]KernelSpecRef, 0, catalog.Len())
	for _, entry := range catalog.Entries() {
		if !entry.HasKernelspec {
			continue
		}
		refs = append(refs, KernelSpecRef{Name: entry.Name, ResourceDir: entry.ResourceDir})
	}
	return refs, nil
}

// GetKernelSpec returns one catalog entry by kernel name.
func (e *Engine) GetKernelSpec(ctx context.Context, name string) (kernels.Entry, error) {
	catalog, err := e.Catalog(ctx)
	if err != nil {
		return kernels.Entry{}, err
	}

	entry, ok := catalog.Get(name)
	if !ok {
		return kernels.Entry{}, errors.New(errors.ErrCodeKernelNotFound, "kernel %q not found", name)
	}
	return entry, nil
}

// GetAllSpecs returns every catalog entry in display order.
func (e *Engine) GetAllSpecs(ctx context.Context) ([]kernels.Entry, error) {
	catalog, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Entries(), nil
}

// Provenances returns the provenances with a registry, for display.
func (e *Engine) Provenances() []envs.Provenance {
	return envs.Registered()
}
