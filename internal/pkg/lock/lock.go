// Package lock serializes mutations of a single learner's progress and
// inventory inside one process. Different users never contend.
package lock

import (
	"context"
	"sync"
	"time"
)

// slot is a one-token semaphore. waiters counts the holder plus everyone
// queued on it; the slot is dropped when it reaches zero.
type slot struct {
	token   chan struct{}
	waiters int
}

// UserLock provides per-user locking so that point, goal and penalty
// updates for one user are applied one at a time. It is not reentrant.
type UserLock struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[int64]*slot
}

// NewUserLock creates a new UserLock. A positive timeout bounds how long
// Lock waits; zero waits until the context is done.
func NewUserLock(timeout time.Duration) *UserLock {
	return &UserLock{
		timeout: timeout,
		slots:   make(map[int64]*slot),
	}
}

func (ul *UserLock) join(userID int64) *slot {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	s, ok := ul.slots[userID]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		ul.slots[userID] = s
	}
	s.waiters++
	return s
}

func (ul *UserLock) leave(userID int64, s *slot) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	s.waiters--
	if s.waiters == 0 {
		delete(ul.slots, userID)
	}
}

// Lock blocks until the user's lock is held. Running past the configured
// timeout yields ErrLockTimeout; cancellation of ctx yields ctx.Err().
func (ul *UserLock) Lock(ctx context.Context, userID int64) error {
	wait := ctx
	if ul.timeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, ul.timeout)
		defer cancel()
	}

	s := ul.join(userID)
	select {
	case s.token <- struct{}{}:
		return nil
	case <-wait.Done():
		ul.leave(userID, s)
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
}

// TryLock acquires the user's lock only if it is free.
func (ul *UserLock) TryLock(userID int64) bool {
	s := ul.join(userID)
	select {
	case s.token <- struct{}{}:
		return true
	default:
		ul.leave(userID, s)
		return false
	}
}

// Unlock releases the user's lock. Unlocking a free user is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	s, ok := ul.slots[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-s.token:
		ul.leave(userID, s)
	default:
	}
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.Lock(ctx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

