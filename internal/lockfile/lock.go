// Package lockfile serializes discover-or-create across processes that
// share a service name, so two concurrent builds do not both start a
// container for it.
package lockfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/giantswarm/realmenv/internal/fileutil"
)

// retryInterval is the delay between lock attempts while another process
// holds the lock.
const retryInterval = 50 * time.Millisecond

// Lock is a held exclusive file lock.
type Lock struct {
	fl  *flock.Flock
	log *slog.Logger
}

// Path returns the lock file for name inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".lock")
}

// Acquire blocks until it holds the exclusive lock on dir/name.lock or ctx
// is done. The directory is created when missing.
func Acquire(ctx context.Context, dir, name string, log *slog.Logger) (*Lock, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("lock directory: %w", err)
	}

	path := Path(dir, name)
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", path, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", path)
	}

	log.Debug("acquired file lock", "path", path)
	return &Lock{fl: fl, log: log}, nil
}

// Release unlocks and closes the lock file. The file stays on disk: removing
// it could invalidate a lock another process acquires in the meantime.
// Safe to call on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Close(); err != nil {
		l.log.Debug("failed to release file lock", "path", l.fl.Path(), "err", err)
	}
}
