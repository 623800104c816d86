package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/repository"
)

// Ledger is the single place balances change. Each change is written with
// an audit row inside the caller's transaction, so both commit or neither does.
type Ledger struct{}

// NewLedger creates a Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Credit adds amount to the user's balance and returns the new balance.
// A zero credit writes nothing.
func (l *Ledger) Credit(ctx context.Context, tx *repository.Store, userID, amount int64, cause model.LedgerCause, description string) (int64, error) {
	if amount < 0 {
		return 0, apperr.InvalidInput("credit amount must not be negative")
	}
	if amount == 0 {
		user, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return 0, err
		}
		return user.Points, nil
	}
	return l.apply(ctx, tx, userID, amount, cause, description)
}

// Debit removes amount from the user's balance and returns the new balance.
// The balance never goes below zero: an oversized debit fails with
// KindInsufficientBalance and changes nothing.
func (l *Ledger) Debit(ctx context.Context, tx *repository.Store, userID, amount int64, cause model.LedgerCause, description string) (int64, error) {
	if amount < 0 {
		return 0, apperr.InvalidInput("debit amount must not be negative")
	}
	if amount == 0 {
		return l.Credit(ctx, tx, userID, 0, cause, description)
	}

	balance, err := l.apply(ctx, tx, userID, -amount, cause, description)
	if errors.Is(err, repository.ErrNegativeBalance) {
		return 0, apperr.Wrap(apperr.KindInsufficientBalance, "Not enough points", err)
	}
	return balance, err
}

func (l *Ledger) apply(ctx context.Context, tx *repository.Store, userID, delta int64, cause model.LedgerCause, description string) (int64, error) {
	balance, err := tx.Users.AddPoints(ctx, userID, delta)
	if err != nil {
		return 0, err
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	if _, err := tx.Transactions.Create(ctx, userID, delta, cause, desc); err != nil {
		return 0, err
	}

	log.Debug().
		Int64("user_id", userID).
		Int64("delta", delta).
		Str("cause", string(cause)).
		Int64("balance", balance).
		Msg("Points updated")

	return balance, nil
}
