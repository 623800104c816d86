package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"word-garden/internal/achievement"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// UnlockResult lists the achievements a check unlocked.
type UnlockResult struct {
	Unlocked []*model.Achievement `json:"newAchievements"`
	Points   int64                `json:"points"`
}

// AchievementService evaluates achievement conditions and unlocks them
// exactly once per user, crediting the reward in the same transaction.
type AchievementService struct {
	store    *repository.Store
	locks    *lock.UserLock
	ledger   *Ledger
	registry *achievement.Registry
	loc      *time.Location
	now      Clock
}

// NewAchievementService creates a new AchievementService instance.
func NewAchievementService(
	store *repository.Store,
	locks *lock.UserLock,
	ledger *Ledger,
	registry *achievement.Registry,
	loc *time.Location,
	now Clock,
) *AchievementService {
	if loc == nil {
		loc = time.Local
	}
	return &AchievementService{
		store:    store,
		locks:    locks,
		ledger:   ledger,
		registry: registry,
		loc:      loc,
		now:      now.orDefault(),
	}
}

// Catalog lists every achievement, highest reward first.
func (s *AchievementService) Catalog(ctx context.Context) ([]*model.Achievement, error) {
	list, err := s.store.Achievements.ListCatalog(ctx)
	if err != nil {
		return nil, translate(err, "list achievements")
	}
	return list, nil
}

// Unlocked lists a user's unlocked achievements.
func (s *AchievementService) Unlocked(ctx context.Context, userID int64) ([]*model.UserAchievement, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	list, err := s.store.Achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, translate(err, "list unlocked achievements")
	}
	return list, nil
}

// CheckAndUnlock evaluates every achievement the user does not hold yet and
// unlocks those whose condition is met. Running it again with no new
// activity unlocks nothing.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, userID int64) (*UnlockResult, error) {
	res := UnlockResult{Unlocked: []*model.Achievement{}}

	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, user *model.User) error {
		res.Points = user.Points

		activity, err := s.activity(ctx, tx, user)
		if err != nil {
			return err
		}

		locked, err := tx.Achievements.ListLocked(ctx, userID)
		if err != nil {
			return err
		}

		met, unknown := s.registry.Satisfied(locked, activity)
		for _, a := range unknown {
			log.Warn().
				Int64("achievement_id", a.ID).
				Str("condition_type", string(a.ConditionType)).
				Msg("Skipping achievement with unregistered condition type")
		}

		for _, a := range met {
			inserted, err := tx.Achievements.Unlock(ctx, userID, a.ID)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			res.Points, err = s.ledger.Credit(ctx, tx, userID, a.RewardPoints, model.CauseAchievement, a.Name)
			if err != nil {
				return err
			}
			res.Unlocked = append(res.Unlocked, a)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "check achievements")
	}

	if len(res.Unlocked) > 0 {
		names := make([]string, 0, len(res.Unlocked))
		for _, a := range res.Unlocked {
			names = append(names, a.Name)
		}
		log.Info().
			Int64("user_id", userID).
			Strs("achievements", names).
			Int64("points", res.Points).
			Msg("Achievements unlocked")
	}

	return &res, nil
}

func (s *AchievementService) activity(ctx context.Context, tx *repository.Store, user *model.User) (achievement.Activity, error) {
	now := s.now()

	words, err := tx.Mastery.CountLearned(ctx, user.ID)
	if err != nil {
		return achievement.Activity{}, err
	}
	reviews, err := tx.Records.CountByType(ctx, user.ID, model.RecordReview)
	if err != nil {
		return achievement.Activity{}, err
	}
	goalDone, err := tx.Goals.IsCompleted(ctx, user.ID, WeekStart(now, s.loc))
	if err != nil {
		return achievement.Activity{}, err
	}

	return achievement.Activity{
		WordsLearned:        words,
		Reviews:             reviews,
		LastLogin:           user.LastLogin,
		WeeklyGoalCompleted: goalDone,
		Now:                 now,
	}, nil
}
