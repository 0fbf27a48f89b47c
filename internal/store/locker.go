package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when the cross-process file lock could not be
// acquired within the configured wait. A crashed holder therefore delays
// writers by at most LockTimeout instead of wedging them.
var ErrLockTimeout = errors.New("store: lock wait timed out")

const lockRetryDelay = 25 * time.Millisecond

// withLock runs fn while holding an exclusive advisory lock for path. The
// lock scope covers the whole load-modify-save of fn, not just the final
// write, so concurrent processes cannot lose updates. The lock lives on a
// sidecar file because document saves replace the target via rename.
func (s *Store) withLock(ctx context.Context, path string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	fl := flock.New(path + ".lock")
	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	defer fl.Unlock()

	return fn()
}
