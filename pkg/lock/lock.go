// Package lock provides cross-process advisory locking behind a narrow
// interface, so the lock backend is swappable without touching registry logic.
//
// The default implementation uses gofrs/flock (flock(2) on Unix, LockFileEx
// on Windows). Locks are scoped to a single well-known lock-file path and
// serialize every mutating operation in the system. Contention is rare and
// correctness matters more than throughput, so the granularity is deliberately
// coarse.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/nbkernels/nbkernels/pkg/errors"
)

// DefaultTimeout bounds how long Acquire waits before giving up with a
// LOCK_TIMEOUT error.
const DefaultTimeout = 5 * time.Second

// retryInterval is how often the flock acquisition is retried while waiting.
const retryInterval = 50 * time.Millisecond

// Release releases a held lock. Safe to call exactly once.
type Release func() error

// Locker acquires a cross-process advisory lock on a path.
type Locker interface {
	// Acquire blocks until the lock at path is held or timeout elapses.
	// On timeout it returns an error with code LOCK_TIMEOUT; callers surface
	// this as retryable and must never proceed unlocked.
	Acquire(ctx context.Context, path string, timeout time.Duration) (Release, error)
}

// FileLocker is the flock-backed Locker used in production.
type FileLocker struct{}

// NewFileLocker returns a Locker backed by an advisory file lock.
func NewFileLocker() *FileLocker {
	return &FileLocker{}
}

// Acquire implements Locker.
func (l *FileLocker) Acquire(ctx context.Context, path string, timeout time.Duration) (Release, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "create lock directory for %s", path)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil && ctx.Err() == nil {
		return nil, errors.Wrap(errors.ErrCodeIOFailure, err, "acquire lock %s", path)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeLockTimeout, "lock %s not acquired within %s", path, timeout)
	}

	return fl.Unlock, nil
}

var _ Locker = (*FileLocker)(nil)
