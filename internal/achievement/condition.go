// Package achievement holds the achievement condition variants and the
// registry that maps a catalog condition type to its evaluation.
package achievement

import (
	"time"

	"word-garden/internal/model"
)

// Activity is the snapshot of a user's progress that conditions are
// evaluated against. It is aggregated once per evaluation run.
type Activity struct {
	WordsLearned        int64
	Reviews             int64
	LastLogin           time.Time
	WeeklyGoalCompleted bool
	Now                 time.Time
}

// Condition is one unlock rule variant.
type Condition interface {
	// Type returns the catalog tag this condition evaluates.
	Type() model.ConditionType

	// Met reports whether the activity satisfies the rule at threshold.
	Met(a Activity, threshold int64) bool
}

// WordsLearned is met once the user has learned threshold words.
type WordsLearned struct{}

func (WordsLearned) Type() model.ConditionType { return model.ConditionWordsLearned }

func (WordsLearned) Met(a Activity, threshold int64) bool {
	return a.WordsLearned >= threshold
}

// ReviewCount is met once the user has logged threshold reviews.
type ReviewCount struct{}

func (ReviewCount) Type() model.ConditionType { return model.ConditionReviewCount }

func (ReviewCount) Met(a Activity, threshold int64) bool {
	return a.Reviews >= threshold
}

// ConsecutiveDays approximates a study streak by the whole days elapsed
// since the last login.
type ConsecutiveDays struct{}

func (ConsecutiveDays) Type() model.ConditionType { return model.ConditionConsecutiveDays }

func (ConsecutiveDays) Met(a Activity, threshold int64) bool {
	if a.LastLogin.IsZero() {
		return false
	}
	days := int64(a.Now.Sub(a.LastLogin) / (24 * time.Hour))
	return days >= threshold
}

// WeeklyGoal is met when the current week's goal row is complete.
type WeeklyGoal struct{}

func (WeeklyGoal) Type() model.ConditionType { return model.ConditionWeeklyGoal }

func (WeeklyGoal) Met(a Activity, _ int64) bool {
	return a.WeeklyGoalCompleted
}
