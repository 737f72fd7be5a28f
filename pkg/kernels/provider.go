package kernels

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nbkernels/nbkernels/pkg/envs"
)

// ProviderEntry is one kernel supplied by the delegated provenance's own
// catalog: an already-built launch descriptor plus its resource directory.
type ProviderEntry struct {
	Spec            *Spec
	ResourceDir     string
	Provenance      envs.Provenance
	EnvironmentName string
	EnvironmentPath string
}

// Provider is the optional capability interface for the delegated
// provenance. When absent (nil), the synthesizer degrades gracefully to an
// empty delegated catalog. Read-only: there is no mutation contract.
type Provider interface {
	// GetCatalog returns the delegated provenance's pre-built mapping of
	// kernel name to launch descriptor.
	GetCatalog(ctx context.Context) (map[string]ProviderEntry, error)

	// ListGlobalEnvironments returns the delegated provenance's own
	// environment paths, used by the workspace guard.
	ListGlobalEnvironments() []string
}

// condaTimeout bounds each invocation of the conda binary.
const condaTimeout = 10 * time.Second

// CondaProvider implements Provider by shelling out to the conda binary.
type CondaProvider struct {
	binary string
	logger *log.Logger
}

// NewCondaProvider returns a provider backed by the conda binary, or nil
// when conda is not installed. A nil provider is a valid absent capability.
func NewCondaProvider(logger *log.Logger) *CondaProvider {
	if logger == nil {
		logger = log.Default()
	}
	bin, err := exec.LookPath("conda")
	if err != nil {
		logger.Debug("conda not found; delegated catalog disabled")
		return nil
	}
	return &CondaProvider{binary: bin, logger: logger}
}

// condaEnvList mirrors `conda env list --json` output.
type condaEnvList struct {
	Envs []string `json:"envs"`
}

// ListGlobalEnvironments implements Provider.
func (p *CondaProvider) ListGlobalEnvironments() []string {
	ctx, cancel := context.WithTimeout(context.Background(), condaTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.binary, "env", "list", "--json").Output()
	if err != nil {
		p.logger.Warn("conda env list failed", "err", err)
		return nil
	}

	var list condaEnvList
	if err := json.Unmarshal(out, &list); err != nil {
		p.logger.Warn("conda env list returned malformed JSON", "err", err)
		return nil
	}
	return list.Envs
}

// GetCatalog implements Provider. Each conda environment's kernelspecs are
// collected as-is: the delegated catalog is pre-built by conda's own
// tooling, so descriptors are not rewritten here.
func (p *CondaProvider) GetCatalog(ctx context.Context) (map[string]ProviderEntry, error) {
	catalog := make(map[string]ProviderEntry)

	for _, envPath := range p.ListGlobalEnvironments() {
		envName := filepath.Base(envPath)
		for _, dir := range FindSpecDirs(envPath) {
			spec, err := LoadSpec(filepath.Join(dir, "kernel.json"))
			if err != nil {
				p.logger.Warn("skipping malformed conda kernelspec", "dir", dir, "err", err)
				continue
			}

			name := CleanName("conda-" + envName + "-" + normalizeKernelDir(filepath.Base(dir)))
			catalog[name] = ProviderEntry{
				Spec:            spec,
				ResourceDir:     dir,
				Provenance:      envs.ProvenanceConda,
				EnvironmentName: envName,
				EnvironmentPath: envPath,
			}
		}
	}

	return catalog, nil
}

var _ Provider = (*CondaProvider)(nil)
