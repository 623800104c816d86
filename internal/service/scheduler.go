package service

import (
	"time"

	"word-garden/internal/model"
)

// Point awards.
const (
	PointsLearnFirst      int64 = 10
	PointsReviewCorrect   int64 = 5
	PointsReviewIncorrect int64 = 2
	PracticeMaxPoints     int64 = 20
)

// reviewIntervals holds the review spacing in days, indexed by min(level, 5).
var reviewIntervals = [...]int{1, 2, 4, 7, 15, 30}

// MaxIntervalLevel is the level at which the interval stops growing.
const MaxIntervalLevel = len(reviewIntervals) - 1

// IntervalDays returns the review spacing for a mastery level.
func IntervalDays(level int) int {
	return reviewIntervals[max(0, min(level, MaxIntervalLevel))]
}

// NextLevel applies one outcome to a mastery level. Levels never go below 0.
func NextLevel(level int, outcome model.Outcome) int {
	if outcome == model.OutcomeCorrect {
		return level + 1
	}
	return max(0, level-1)
}

// NextReviewAt is the time a word at level becomes due again.
func NextReviewAt(now time.Time, level int) time.Time {
	return now.AddDate(0, 0, IntervalDays(level))
}

// ReviewPoints returns the points credited for one review.
func ReviewPoints(outcome model.Outcome) int64 {
	if outcome == model.OutcomeCorrect {
		return PointsReviewCorrect
	}
	return PointsReviewIncorrect
}

// PracticePoints scores a practice session as floor(correct/total*20).
// A session with no questions scores 0.
func PracticePoints(correct, total int) int64 {
	if total <= 0 || correct <= 0 {
		return 0
	}
	return int64(correct) * PracticeMaxPoints / int64(total)
}
