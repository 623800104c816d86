package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// MaxNicknameLength bounds nicknames in runes.
const MaxNicknameLength = 64

// PointsOperation selects the direction of a manual adjustment.
type PointsOperation string

const (
	OpAdd      PointsOperation = "add"
	OpSubtract PointsOperation = "subtract"
)

// AccountService handles user accounts and manual point adjustments.
type AccountService struct {
	store  *repository.Store
	locks  *lock.UserLock
	ledger *Ledger
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store *repository.Store, locks *lock.UserLock, ledger *Ledger) *AccountService {
	return &AccountService{
		store:  store,
		locks:  locks,
		ledger: ledger,
	}
}

// Login creates the user on first login and refreshes last_login otherwise.
func (s *AccountService) Login(ctx context.Context, nickname string) (*model.User, error) {
	nickname, err := normalizeNickname(nickname)
	if err != nil {
		return nil, err
	}

	user, created, err := s.store.Users.Login(ctx, nickname)
	if err != nil {
		return nil, translate(err, "login")
	}
	if created {
		log.Info().Int64("user_id", user.ID).Str("nickname", nickname).Msg("New user created")
	}
	return user, nil
}

// LinkTelegram logs in by nickname and attaches the Telegram account to it.
func (s *AccountService) LinkTelegram(ctx context.Context, telegramID int64, nickname string) (*model.User, error) {
	user, err := s.Login(ctx, nickname)
	if err != nil {
		return nil, err
	}
	if user.TelegramID != nil {
		if *user.TelegramID == telegramID {
			return user, nil
		}
		return nil, apperr.Conflict("Nickname is already linked to another Telegram account")
	}
	if err := s.store.Users.LinkTelegram(ctx, user.ID, telegramID); err != nil {
		return nil, translate(err, "link telegram")
	}
	user.TelegramID = &telegramID
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AccountService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return user, nil
}

// GetByNickname retrieves a user by nickname.
func (s *AccountService) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	user, err := s.store.Users.GetByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return user, nil
}

// GetByTelegramID retrieves the user linked to a Telegram account.
func (s *AccountService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.store.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return user, nil
}

// Stats returns the user's progress counters.
func (s *AccountService) Stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	stats, err := s.store.Users.Stats(ctx, userID)
	if err != nil {
		return nil, translate(err, "get stats")
	}
	return stats, nil
}

// Transactions lists the user's ledger entries, newest first.
func (s *AccountService) Transactions(ctx context.Context, userID int64, limit int) ([]*model.PointTransaction, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions.GetByUserID(ctx, userID, clampLimit(limit, HistoryDefaultLimit, HistoryMaxLimit))
	if err != nil {
		return nil, translate(err, "list transactions")
	}
	return txs, nil
}

// AdjustPoints applies a manual adjustment and returns the new balance.
// A subtraction larger than the balance takes the balance to zero.
func (s *AccountService) AdjustPoints(ctx context.Context, userID, points int64, op PointsOperation) (int64, error) {
	if points <= 0 {
		return 0, apperr.InvalidInput("points must be positive")
	}
	if op != OpAdd && op != OpSubtract {
		return 0, apperr.InvalidInput(fmt.Sprintf("operation must be %q or %q", OpAdd, OpSubtract))
	}

	var balance int64
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, user *model.User) error {
		var err error
		if op == OpAdd {
			balance, err = s.ledger.Credit(ctx, tx, userID, points, model.CauseManual, "manual add")
			return err
		}
		balance, err = s.ledger.Debit(ctx, tx, userID, min(points, user.Points), model.CauseManual, "manual subtract")
		return err
	})
	if err != nil {
		return 0, translate(err, "adjust points")
	}

	log.Info().
		Int64("user_id", userID).
		Str("operation", string(op)).
		Int64("points", points).
		Int64("balance", balance).
		Msg("Points adjusted manually")

	return balance, nil
}

func normalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", apperr.InvalidInput("Nickname is required")
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", apperr.InvalidInput(fmt.Sprintf("Nickname must be at most %d characters", MaxNicknameLength))
	}
	return nickname, nil
}
