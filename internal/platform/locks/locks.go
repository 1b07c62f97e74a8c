package locks

import (
	"context"
	"errors"
)

// ErrLockUnavailable is returned when a lock could not be acquired before
// the context ended.
var ErrLockUnavailable = errors.New("lock unavailable")

// Unlock releases a lock obtained from a Locker. It is safe to call once.
type Unlock func()

// Locker hands out exclusive locks keyed by string.
// Locks on different keys never block each other.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// On failure the returned error wraps ErrLockUnavailable and ctx.Err().
	Lock(ctx context.Context, key string) (Unlock, error)
}
