package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// ErrGoalNotFound is returned when no goal row exists for a user's week.
var ErrGoalNotFound = errors.New("weekly goal not found")

const goalColumns = `id, user_id, week_start, target_words, learned_words, is_completed, penalty_applied_at`

func goalDest(g *model.WeeklyGoal) []any {
	return []any{&g.ID, &g.UserID, &g.WeekStart, &g.TargetWords, &g.LearnedWords, &g.IsCompleted, &g.PenaltyAppliedAt}
}

// GoalRepository persists weekly goals, one row per (user, week).
type GoalRepository struct {
	db db.Querier
}

// NewGoalRepository creates a new GoalRepository instance.
func NewGoalRepository(q db.Querier) *GoalRepository {
	return &GoalRepository{db: q}
}

// GetOrCreate returns the goal for weekStart, inserting it with the given
// target when missing. Concurrent callers converge on the same row.
func (r *GoalRepository) GetOrCreate(ctx context.Context, userID int64, weekStart time.Time, target int) (*model.WeeklyGoal, error) {
	const insert = `
		INSERT INTO weekly_goals (user_id, week_start, target_words, learned_words, is_completed)
		VALUES ($1, $2, $3, 0, FALSE)
		ON CONFLICT (user_id, week_start) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, insert, userID, weekStart, target); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create weekly goal: %w", err)
	}
	return r.Get(ctx, userID, weekStart)
}

// Get retrieves the goal for a user's week.
func (r *GoalRepository) Get(ctx context.Context, userID int64, weekStart time.Time) (*model.WeeklyGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM weekly_goals WHERE user_id = $1 AND week_start = $2`

	var g model.WeeklyGoal
	if err := r.db.QueryRow(ctx, query, userID, weekStart).Scan(goalDest(&g)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get weekly goal: %w", err)
	}
	return &g, nil
}

// SetProgress overwrites the learned count and completion flag.
func (r *GoalRepository) SetProgress(ctx context.Context, id int64, learned int, completed bool) (*model.WeeklyGoal, error) {
	query := `
		UPDATE weekly_goals
		SET learned_words = $2, is_completed = $3
		WHERE id = $1
		RETURNING ` + goalColumns

	var g model.WeeklyGoal
	if err := r.db.QueryRow(ctx, query, id, learned, completed).Scan(goalDest(&g)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to update weekly goal: %w", err)
	}
	return &g, nil
}

// MarkPenalized stamps the goal so its week is never penalized twice.
// It reports false when the goal was already stamped.
func (r *GoalRepository) MarkPenalized(ctx context.Context, id int64, at time.Time) (bool, error) {
	const query = `
		UPDATE weekly_goals
		SET penalty_applied_at = $2
		WHERE id = $1 AND penalty_applied_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark weekly goal penalized: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IsCompleted reports whether the goal for weekStart exists and is complete.
func (r *GoalRepository) IsCompleted(ctx context.Context, userID int64, weekStart time.Time) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM weekly_goals
			WHERE user_id = $1 AND week_start = $2 AND is_completed
		)
	`

	var done bool
	if err := r.db.QueryRow(ctx, query, userID, weekStart).Scan(&done); err != nil {
		return false, fmt.Errorf("failed to check weekly goal: %w", err)
	}
	return done, nil
}
