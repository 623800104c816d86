package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// Common errors for repository operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTelegramLinked     = errors.New("telegram link conflicts with an existing link")
	ErrNegativeBalance    = errors.New("balance would become negative")
	ErrInvalidBalanceDiff = errors.New("balance change must be non-zero")
)

const userColumns = `id, nickname, points, telegram_id, created_at, last_login`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Points,
		&user.TelegramID,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserRepository handles user data persistence.
type UserRepository struct {
	db db.Querier
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(q db.Querier) *UserRepository {
	return &UserRepository{db: q}
}

// Login creates the user on first login, otherwise refreshes last_login.
// The bool reports whether the user was created.
func (r *UserRepository) Login(ctx context.Context, nickname string) (*model.User, bool, error) {
	const query = `
		INSERT INTO users (nickname, points, created_at, last_login)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (nickname) DO UPDATE SET last_login = NOW()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`

	var user model.User
	var inserted bool
	err := r.db.QueryRow(ctx, query, nickname).Scan(
		&user.ID,
		&user.Nickname,
		&user.Points,
		&user.TelegramID,
		&user.CreatedAt,
		&user.LastLogin,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to login user: %w", err)
	}

	return &user, inserted, nil
}

// GetByID retrieves a user by ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByNickname retrieves a user by nickname.
func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE nickname = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, nickname))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by nickname: %w", err)
	}
	return user, nil
}

// GetByTelegramID retrieves the user linked to a Telegram account.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return user, nil
}

// LockForUpdate loads the user row with a row lock held until the enclosing
// transaction ends. Every mutating operation on a user's progress takes it
// first, which serializes them across processes.
func (r *UserRepository) LockForUpdate(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return user, nil
}

// AddPoints applies a signed delta to a user's points and returns the new balance.
// Returns ErrNegativeBalance if the result would drop below zero.
func (r *UserRepository) AddPoints(ctx context.Context, id int64, delta int64) (int64, error) {
	if delta == 0 {
		return 0, ErrInvalidBalanceDiff
	}

	const query = `
		UPDATE users
		SET points = points + $2
		WHERE id = $1 AND points + $2 >= 0
		RETURNING points
	`

	var points int64
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, existsErr := r.Exists(ctx, id)
			if existsErr != nil {
				return 0, existsErr
			}
			if !exists {
				return 0, ErrUserNotFound
			}
			return 0, ErrNegativeBalance
		}
		return 0, fmt.Errorf("failed to update points: %w", err)
	}
	return points, nil
}

// LinkTelegram attaches a Telegram account to a user.
func (r *UserRepository) LinkTelegram(ctx context.Context, id int64, telegramID int64) error {
	const query = `
		UPDATE users SET telegram_id = $2
		WHERE id = $1 AND (telegram_id IS NULL OR telegram_id = $2)
	`

	tag, err := r.db.Exec(ctx, query, id, telegramID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTelegramLinked
		}
		return fmt.Errorf("failed to link telegram account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			return ErrTelegramLinked
		}
		return ErrUserNotFound
	}
	return nil
}

// Exists checks if a user exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// GetTopUsers retrieves the users with the most points.
func (r *UserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY points DESC, id ASC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Stats counts a user's learned words, reviews, unlocks and owned items.
func (r *UserRepository) Stats(ctx context.Context, id int64) (*model.UserStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM user_words WHERE user_id = $1),
			(SELECT COUNT(*) FROM learning_records WHERE user_id = $1 AND record_type = 'review'),
			(SELECT COUNT(*) FROM user_achievements WHERE user_id = $1),
			(SELECT COUNT(*) FROM user_inventory WHERE user_id = $1)
	`

	var stats model.UserStats
	err := r.db.QueryRow(ctx, query, id).Scan(
		&stats.TotalWords,
		&stats.Reviews,
		&stats.Achievements,
		&stats.Inventory,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return &stats, nil
}
