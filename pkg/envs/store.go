package envs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nbkernels/nbkernels/pkg/errors"
	"github.com/nbkernels/nbkernels/pkg/lock"
)

// registryFile is the well-known registry file name inside each provenance's
// home directory.
const registryFile = "environments.txt"

// lockFile is the single lock file shared by all provenances. Every mutation
// in the system serializes on it.
const lockFile = "registry.lock"

// Store owns the persisted registry state: one line-oriented file per
// non-delegated provenance plus the shared lock file. All mutation goes
// through Write, and callers wrap mutations in WithLock.
type Store struct {
	venvDir     string
	uvDir       string
	locker      lock.Locker
	lockTimeout time.Duration
	logger      *log.Logger
}

// NewStore creates a store with explicit registry directories. Tests point
// these at temp dirs; production uses DefaultStore.
func NewStore(venvDir, uvDir string, locker lock.Locker, lockTimeout time.Duration, logger *log.Logger) *Store {
	if locker == nil {
		locker = lock.NewFileLocker()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		venvDir:     venvDir,
		uvDir:       uvDir,
		locker:      locker,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// DefaultStore creates a store rooted at the conventional home-directory
// locations (~/.venv and ~/.uv).
func DefaultStore(locker lock.Locker, lockTimeout time.Duration, logger *log.Logger) (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "resolve home directory")
	}
	return NewStore(filepath.Join(home, ".venv"), filepath.Join(home, ".uv"), locker, lockTimeout, logger), nil
}

// RegistryPath returns the registry file for a provenance.
func (s *Store) RegistryPath(p Provenance) (string, error) {
	switch p {
	case ProvenanceVenv:
		return filepath.Join(s.venvDir, registryFile), nil
	case ProvenanceUV:
		return filepath.Join(s.uvDir, registryFile), nil
	default:
		return "", errors.New(errors.ErrCodeInternal, "provenance %q has no registry", p)
	}
}

// LockPath returns the shared lock file path.
func (s *Store) LockPath() string {
	return filepath.Join(s.venvDir, lockFile)
}

// ReadOptions modify Read behavior.
type ReadOptions struct {
	// IncludeMissing keeps records whose path no longer exists on disk,
	// tagged Missing, so callers can report rather than silently drop
	// stale state.
	IncludeMissing bool
}

// Read returns the registry records for a provenance in file order, dropping
// records whose path no longer exists.
func (s *Store) Read(p Provenance) ([]Record, error) {
	return s.ReadWithOptions(p, ReadOptions{})
}

// ReadWithOptions returns the registry records for a provenance in file
// order. Malformed lines (empty, comment) are skipped. A line with a tab
// splits into path and custom name; a bare line has no custom name.
func (s *Store) ReadWithOptions(p Provenance, opts ReadOptions) ([]Record, error) {
	path, err := s.RegistryPath(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "read registry %s", path)
	}

	var records []Record
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		envPath, customName, _ := strings.Cut(trimmed, "\t")
		envPath = normalizePath(envPath)

		rec := Record{
			Path:       envPath,
			CustomName: strings.TrimSpace(customName),
			Provenance: p,
		}

		if info, err := os.Stat(envPath); err != nil || !info.IsDir() {
			if !opts.IncludeMissing {
				continue
			}
			rec.Missing = true
		}

		records = append(records, rec)
	}

	return records, nil
}

// ReadAll returns records of every registered provenance, uv first, in the
// fixed synthesis order.
func (s *Store) ReadAll(opts ReadOptions) ([]Record, error) {
	var all []Record
	for _, p := range Registered() {
		records, err := s.ReadWithOptions(p, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Write atomically replaces the registry file for a provenance: the new
// content is written to a temp file in the same directory and renamed over
// the old one, so a crash or lock timeout never leaves a partial registry.
func (s *Store) Write(p Provenance, records []Record) error {
	path, err := s.RegistryPath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "create registry directory for %s", path)
	}

	var b strings.Builder
	for _, rec := range records {
		if rec.CustomName != "" {
			fmt.Fprintf(&b, "%s\t%s\n", rec.Path, rec.CustomName)
		} else {
			fmt.Fprintf(&b, "%s\n", rec.Path)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), registryFile+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "create temp registry for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIOFailure, err, "write registry %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIOFailure, err, "close registry %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIOFailure, err, "replace registry %s", path)
	}

	s.logger.Debug("registry written", "provenance", p, "records", len(records), "path", path)
	return nil
}

// WithLock runs fn while holding the cross-process advisory lock shared by
// all provenances. Acquisition blocks up to the store's timeout, then fails
// with LOCK_TIMEOUT; fn is never run unlocked.
func (s *Store) WithLock(ctx context.Context, fn func() error) error {
	release, err := s.locker.Acquire(ctx, s.LockPath(), s.lockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			s.logger.Warn("release registry lock", "err", rerr)
		}
	}()

	return fn()
}

// normalizePath expands a leading ~ and makes the path absolute and clean.
func normalizePath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
