// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"time"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// runLocked runs fn in one transaction while holding both the in-process
// user lock and the user's row lock. Every operation that changes a user's
// points, mastery, goal or inventory goes through here.
func runLocked(
	ctx context.Context,
	store *repository.Store,
	locks *lock.UserLock,
	userID int64,
	fn func(tx *repository.Store, user *model.User) error,
) error {
	return locks.WithLock(ctx, userID, func() error {
		return store.InTx(ctx, func(tx *repository.Store) error {
			user, err := tx.Users.LockForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			return fn(tx, user)
		})
	})
}

// translate maps repository errors onto the apperr taxonomy. Errors already
// carrying a kind pass through untouched.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.Wrap(apperr.KindNotFound, "User not found", err)
	case errors.Is(err, repository.ErrWordNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Word not found", err)
	case errors.Is(err, repository.ErrMasteryNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Word not learned yet", err)
	case errors.Is(err, repository.ErrItemNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Item not found", err)
	case errors.Is(err, repository.ErrItemNotOwned):
		return apperr.Wrap(apperr.KindNotFound, "Item not owned", err)
	case errors.Is(err, repository.ErrItemAlreadyOwned):
		return apperr.Wrap(apperr.KindConflict, "Item already owned", err)
	case errors.Is(err, repository.ErrTelegramLinked):
		return apperr.Wrap(apperr.KindConflict, "Telegram account already linked", err)
	case errors.Is(err, repository.ErrNegativeBalance):
		return apperr.Wrap(apperr.KindInsufficientBalance, "Not enough points", err)
	case errors.Is(err, lock.ErrLockTimeout):
		return apperr.Wrap(apperr.KindConflict, "Another operation for this user is in progress, try again", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Internal(op+" cancelled", err)
	default:
		return apperr.Internal(op+" failed", err)
	}
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
