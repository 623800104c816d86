package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// DefaultWeeklyTarget is the number of new words a weekly goal asks for.
const DefaultWeeklyTarget = 30

// WeekStart returns the most recent Sunday 00:00 in loc at or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -int(local.Weekday()))
}

// GoalCheckResult is the outcome of a weekly goal check.
type GoalCheckResult struct {
	Goal    *model.WeeklyGoal      `json:"goal"`
	Revoked []*model.InventoryItem `json:"revoked"`
}

// GoalService tracks weekly learning goals and triggers the penalty when a
// goal is found incomplete.
type GoalService struct {
	store   *repository.Store
	locks   *lock.UserLock
	penalty *PenaltyEngine
	loc     *time.Location
	target  int
	now     Clock
}

// NewGoalService creates a new GoalService instance.
func NewGoalService(
	store *repository.Store,
	locks *lock.UserLock,
	penalty *PenaltyEngine,
	loc *time.Location,
	target int,
	now Clock,
) *GoalService {
	if loc == nil {
		loc = time.Local
	}
	if target <= 0 {
		target = DefaultWeeklyTarget
	}
	return &GoalService{
		store:   store,
		locks:   locks,
		penalty: penalty,
		loc:     loc,
		target:  target,
		now:     now.orDefault(),
	}
}

// currentWeekStart returns the start of the week containing now.
func (s *GoalService) currentWeekStart() time.Time {
	return WeekStart(s.now(), s.loc)
}

// GetOrCreateCurrent returns this week's goal, creating it when missing.
func (s *GoalService) GetOrCreateCurrent(ctx context.Context, userID int64) (*model.WeeklyGoal, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	goal, err := s.store.Goals.GetOrCreate(ctx, userID, s.currentWeekStart(), s.target)
	if err != nil {
		return nil, translate(err, "get weekly goal")
	}
	return goal, nil
}

// Recompute counts the words learned since the week started and overwrites
// the goal's progress. Running it twice yields the same row.
func (s *GoalService) Recompute(ctx context.Context, userID int64) (*model.WeeklyGoal, error) {
	var goal *model.WeeklyGoal
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		var err error
		goal, err = s.recompute(ctx, tx, userID, s.now())
		return err
	})
	if err != nil {
		return nil, translate(err, "recompute weekly goal")
	}
	return goal, nil
}

// Check recomputes the goal and applies the penalty if it is incomplete.
func (s *GoalService) Check(ctx context.Context, userID int64) (*GoalCheckResult, error) {
	var res GoalCheckResult
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		now := s.now()
		goal, err := s.recompute(ctx, tx, userID, now)
		if err != nil {
			return err
		}

		revoked, err := s.penalty.ApplyIfIncomplete(ctx, tx, goal, now)
		if err != nil {
			return err
		}

		res.Goal = goal
		res.Revoked = revoked
		return nil
	})
	if err != nil {
		return nil, translate(err, "check weekly goal")
	}
	if res.Revoked == nil {
		res.Revoked = []*model.InventoryItem{}
	}
	return &res, nil
}

func (s *GoalService) recompute(ctx context.Context, tx *repository.Store, userID int64, now time.Time) (*model.WeeklyGoal, error) {
	weekStart := WeekStart(now, s.loc)

	goal, err := tx.Goals.GetOrCreate(ctx, userID, weekStart, s.target)
	if err != nil {
		return nil, err
	}

	learned, err := tx.Mastery.CountLearnedSince(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}

	updated, err := tx.Goals.SetProgress(ctx, goal.ID, learned, learned >= goal.TargetWords)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("user_id", userID).
		Time("week_start", weekStart).
		Int("learned", updated.LearnedWords).
		Int("target", updated.TargetWords).
		Bool("completed", updated.IsCompleted).
		Msg("Weekly goal recomputed")

	return updated, nil
}
