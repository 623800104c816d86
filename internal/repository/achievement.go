package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

const achievementColumns = `a.id, a.name, a.description, a.condition_type, a.condition_value, a.reward_points`

func achievementDest(a *model.Achievement) []any {
	return []any{&a.ID, &a.Name, &a.Description, &a.ConditionType, &a.ConditionValue, &a.RewardPoints}
}

// AchievementRepository reads the achievement catalog and records unlocks.
type AchievementRepository struct {
	db db.Querier
}

// NewAchievementRepository creates a new AchievementRepository instance.
func NewAchievementRepository(q db.Querier) *AchievementRepository {
	return &AchievementRepository{db: q}
}

// ListCatalog returns every achievement, highest reward first.
func (r *AchievementRepository) ListCatalog(ctx context.Context) ([]*model.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements a ORDER BY a.reward_points DESC, a.id ASC`
	return r.queryAchievements(ctx, query)
}

// ListLocked returns the achievements a user has not unlocked yet.
func (r *AchievementRepository) ListLocked(ctx context.Context, userID int64) ([]*model.Achievement, error) {
	query := `
		SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE NOT EXISTS (
			SELECT 1 FROM user_achievements ua
			WHERE ua.user_id = $1 AND ua.achievement_id = a.id
		)
		ORDER BY a.id ASC
	`
	return r.queryAchievements(ctx, query, userID)
}

// ListUnlocked returns a user's unlocked achievements, most recent first.
func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID int64) ([]*model.UserAchievement, error) {
	query := `
		SELECT ` + achievementColumns + `, ua.unlocked_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC, a.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var list []*model.UserAchievement
	for rows.Next() {
		var ua model.UserAchievement
		if err := rows.Scan(append(achievementDest(&ua.Achievement), &ua.UnlockedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked achievement: %w", err)
		}
		list = append(list, &ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlocked achievements: %w", err)
	}
	return list, nil
}

// Unlock records an unlock. It reports false, writing nothing, when the user
// already holds the achievement.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID int64) (bool, error) {
	const query = `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, achievement_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, userID, achievementID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return true, nil
}

func (r *AchievementRepository) queryAchievements(ctx context.Context, query string, args ...any) ([]*model.Achievement, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var list []*model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(achievementDest(&a)...); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		list = append(list, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return list, nil
}
