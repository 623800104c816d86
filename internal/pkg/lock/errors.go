package lock

import "errors"

// ErrLockTimeout is returned by LockTimeout when the lock stays busy.
var ErrLockTimeout = errors.New("user lock timeout")
