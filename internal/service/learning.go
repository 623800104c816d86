package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// Listing limits.
const (
	ReviewDueLimit      = 20
	HistoryDefaultLimit = 50
	HistoryMaxLimit     = 200
)

// Input bounds. Counts and durations are stored in INT columns.
const (
	MaxTimeSpent         = math.MaxInt32
	MaxPracticeQuestions = 1000
)

// OutcomeResult is what a learn or review event produced.
type OutcomeResult struct {
	MasteryLevel int       `json:"masteryLevel"`
	NextReviewAt time.Time `json:"nextReview"`
	PointsEarned int64     `json:"pointsEarned"`
	Points       int64     `json:"points"`
	FirstTime    bool      `json:"firstTime"`
}

// PracticeInput describes a finished practice session.
type PracticeInput struct {
	SessionType    string
	TotalQuestions int
	CorrectAnswers int
	TimeSpent      int
}

// LearningService records learn, review and practice events and schedules reviews.
type LearningService struct {
	store  *repository.Store
	locks  *lock.UserLock
	ledger *Ledger
	now    Clock
}

// NewLearningService creates a new LearningService instance.
func NewLearningService(store *repository.Store, locks *lock.UserLock, ledger *Ledger, now Clock) *LearningService {
	return &LearningService{
		store:  store,
		locks:  locks,
		ledger: ledger,
		now:    now.orDefault(),
	}
}

// Learn records a learn event. The first learn of a word creates its mastery
// record at level 0 and credits the first-learn bonus; a repeat learn only
// moves the mastery level and never pays the bonus again.
func (s *LearningService) Learn(ctx context.Context, userID, wordID int64, outcome model.Outcome, timeSpent int) (*OutcomeResult, error) {
	if err := validateOutcome(outcome, timeSpent); err != nil {
		return nil, err
	}

	var res OutcomeResult
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, user *model.User) error {
		if _, err := tx.Words.GetByID(ctx, wordID); err != nil {
			return err
		}

		now := s.now()
		rec, inserted, err := tx.Mastery.InsertFirst(ctx, userID, wordID, NextReviewAt(now, 0), now)
		if err != nil {
			return err
		}

		res.Points = user.Points
		if inserted {
			res.FirstTime = true
			res.PointsEarned = PointsLearnFirst
		} else {
			existing, err := tx.Mastery.Get(ctx, userID, wordID)
			if err != nil {
				return err
			}
			level := NextLevel(existing.MasteryLevel, outcome)
			rec, err = tx.Mastery.UpdateState(ctx, existing.ID, level, NextReviewAt(now, level), false)
			if err != nil {
				return err
			}
		}

		if err := tx.Records.Append(ctx, &model.LearningRecord{
			UserID:     userID,
			WordID:     wordID,
			RecordType: model.RecordLearn,
			Result:     outcome,
			TimeSpent:  timeSpent,
		}); err != nil {
			return err
		}

		if res.PointsEarned > 0 {
			balance, err := s.ledger.Credit(ctx, tx, userID, res.PointsEarned, model.CauseLearn, fmt.Sprintf("learned word %d", wordID))
			if err != nil {
				return err
			}
			res.Points = balance
		}

		res.MasteryLevel = rec.MasteryLevel
		res.NextReviewAt = rec.NextReviewAt
		return nil
	})
	if err != nil {
		return nil, translate(err, "learn")
	}

	log.Info().
		Int64("user_id", userID).
		Int64("word_id", wordID).
		Bool("first_time", res.FirstTime).
		Int("mastery_level", res.MasteryLevel).
		Msg("Word learned")

	return &res, nil
}

// Review records a review of a previously learned word.
func (s *LearningService) Review(ctx context.Context, userID, wordID int64, outcome model.Outcome, timeSpent int) (*OutcomeResult, error) {
	if err := validateOutcome(outcome, timeSpent); err != nil {
		return nil, err
	}

	var res OutcomeResult
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		existing, err := tx.Mastery.Get(ctx, userID, wordID)
		if err != nil {
			return err
		}

		now := s.now()
		level := NextLevel(existing.MasteryLevel, outcome)
		rec, err := tx.Mastery.UpdateState(ctx, existing.ID, level, NextReviewAt(now, level), true)
		if err != nil {
			return err
		}

		if err := tx.Records.Append(ctx, &model.LearningRecord{
			UserID:     userID,
			WordID:     wordID,
			RecordType: model.RecordReview,
			Result:     outcome,
			TimeSpent:  timeSpent,
		}); err != nil {
			return err
		}

		res.PointsEarned = ReviewPoints(outcome)
		res.Points, err = s.ledger.Credit(ctx, tx, userID, res.PointsEarned, model.CauseReview, fmt.Sprintf("reviewed word %d", wordID))
		if err != nil {
			return err
		}

		res.MasteryLevel = rec.MasteryLevel
		res.NextReviewAt = rec.NextReviewAt
		return nil
	})
	if err != nil {
		return nil, translate(err, "review")
	}

	log.Info().
		Int64("user_id", userID).
		Int64("word_id", wordID).
		Str("outcome", string(outcome)).
		Int("mastery_level", res.MasteryLevel).
		Msg("Word reviewed")

	return &res, nil
}

// Practice stores a practice session and credits its score.
func (s *LearningService) Practice(ctx context.Context, userID int64, in PracticeInput) (*model.PracticeSession, error) {
	switch {
	case in.TotalQuestions < 0 || in.CorrectAnswers < 0 || in.TimeSpent < 0:
		return nil, apperr.InvalidInput("practice counts must not be negative")
	case in.CorrectAnswers > in.TotalQuestions:
		return nil, apperr.InvalidInput("correctAnswers cannot exceed totalQuestions")
	case in.TotalQuestions > MaxPracticeQuestions:
		return nil, apperr.InvalidInput(fmt.Sprintf("totalQuestions must be at most %d", MaxPracticeQuestions))
	case in.TimeSpent > MaxTimeSpent:
		return nil, apperr.InvalidInput(fmt.Sprintf("timeSpent must be at most %d", MaxTimeSpent))
	}
	if in.SessionType == "" {
		in.SessionType = "quiz"
	}

	session := &model.PracticeSession{
		UserID:         userID,
		SessionType:    in.SessionType,
		TotalQuestions: in.TotalQuestions,
		CorrectAnswers: in.CorrectAnswers,
		TimeSpent:      in.TimeSpent,
		PointsEarned:   PracticePoints(in.CorrectAnswers, in.TotalQuestions),
	}

	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		if err := tx.Records.CreatePracticeSession(ctx, session); err != nil {
			return err
		}
		_, err := s.ledger.Credit(ctx, tx, userID, session.PointsEarned, model.CausePractice, in.SessionType+" practice")
		return err
	})
	if err != nil {
		return nil, translate(err, "practice")
	}
	return session, nil
}

// ReviewDue lists the words due for review now, soonest first.
func (s *LearningService) ReviewDue(ctx context.Context, userID int64) ([]*model.LearnedWord, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	words, err := s.store.Mastery.ListDue(ctx, userID, s.now(), ReviewDueLimit)
	if err != nil {
		return nil, translate(err, "list due reviews")
	}
	return words, nil
}

// History returns the user's most recent learning records.
func (s *LearningService) History(ctx context.Context, userID int64, limit int) ([]*model.LearningRecord, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.store.Records.History(ctx, userID, clampLimit(limit, HistoryDefaultLimit, HistoryMaxLimit))
	if err != nil {
		return nil, translate(err, "list history")
	}
	return records, nil
}

func (s *LearningService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.store.Users.Exists(ctx, userID)
	if err != nil {
		return translate(err, "lookup user")
	}
	if !exists {
		return apperr.NotFound("User not found")
	}
	return nil
}

func validateOutcome(outcome model.Outcome, timeSpent int) error {
	if !outcome.Valid() {
		return apperr.InvalidInput(fmt.Sprintf("result must be %q or %q", model.OutcomeCorrect, model.OutcomeIncorrect))
	}
	if timeSpent < 0 || timeSpent > MaxTimeSpent {
		return apperr.InvalidInput(fmt.Sprintf("timeSpent must be between 0 and %d", MaxTimeSpent))
	}
	return nil
}
