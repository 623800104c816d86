// Package model defines the data models for the word garden service.
package model

import "time"

// User is a learner account. Points never go below zero.
type User struct {
	ID         int64     `db:"id" json:"id"`
	Nickname   string    `db:"nickname" json:"nickname"`
	Points     int64     `db:"points" json:"points"`
	TelegramID *int64    `db:"telegram_id" json:"telegramId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	LastLogin  time.Time `db:"last_login" json:"lastLogin"`
}

// UserStats aggregates a user's progress counters.
type UserStats struct {
	TotalWords   int64 `json:"totalWords"`
	Reviews      int64 `json:"reviews"`
	Achievements int64 `json:"achievements"`
	Inventory    int64 `json:"inventory"`
}

// Word is an entry of the immutable vocabulary catalog.
type Word struct {
	ID                 int64     `db:"id" json:"id"`
	Word               string    `db:"word" json:"word"`
	Phonetic           string    `db:"phonetic" json:"phonetic"`
	Meaning            string    `db:"meaning" json:"meaning"`
	Example            string    `db:"example" json:"example"`
	ExampleTranslation string    `db:"example_translation" json:"exampleTranslation"`
	ContextDescription string    `db:"context_description" json:"contextDescription"`
	Difficulty         string    `db:"difficulty" json:"difficulty"`
	Category           string    `db:"category" json:"category"`
	ImageURL           string    `db:"image_url" json:"imageUrl"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// MasteryRecord is the per-(user, word) review state.
type MasteryRecord struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	WordID       int64     `db:"word_id" json:"wordId"`
	MasteryLevel int       `db:"mastery_level" json:"masteryLevel"`
	ReviewCount  int       `db:"review_count" json:"reviewCount"`
	NextReviewAt time.Time `db:"next_review_at" json:"nextReviewAt"`
	LearnedAt    time.Time `db:"learned_at" json:"learnedAt"`
}

// LearnedWord joins a mastery record with its catalog word.
type LearnedWord struct {
	Word
	MasteryLevel int       `json:"masteryLevel"`
	ReviewCount  int       `json:"reviewCount"`
	NextReviewAt time.Time `json:"nextReviewAt"`
	LearnedAt    time.Time `json:"learnedAt"`
}

// RecordType distinguishes first-time learning from reviews.
type RecordType string

const (
	RecordLearn  RecordType = "learn"
	RecordReview RecordType = "review"
)

// Outcome is the result of a single learn or review attempt.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeCorrect || o == OutcomeIncorrect
}

// LearningRecord is an append-only event log entry.
type LearningRecord struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"userId"`
	WordID     int64      `db:"word_id" json:"wordId"`
	Word       string     `json:"word,omitempty"`
	Meaning    string     `json:"meaning,omitempty"`
	RecordType RecordType `db:"record_type" json:"recordType"`
	Result     Outcome    `db:"result" json:"result"`
	TimeSpent  int        `db:"time_spent" json:"timeSpent"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// PracticeSession records a scored quiz run.
type PracticeSession struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"userId"`
	SessionType    string    `db:"session_type" json:"sessionType"`
	TotalQuestions int       `db:"total_questions" json:"totalQuestions"`
	CorrectAnswers int       `db:"correct_answers" json:"correctAnswers"`
	TimeSpent      int       `db:"time_spent" json:"timeSpent"`
	PointsEarned   int64     `db:"points_earned" json:"pointsEarned"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// ConditionType tags an achievement condition variant.
type ConditionType string

const (
	ConditionWordsLearned    ConditionType = "words_learned"
	ConditionReviewCount     ConditionType = "review_count"
	ConditionConsecutiveDays ConditionType = "consecutive_days"
	ConditionWeeklyGoal      ConditionType = "weekly_goal"
)

// Achievement is a catalog entry unlocked once per user.
type Achievement struct {
	ID             int64         `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	Description    string        `db:"description" json:"description"`
	ConditionType  ConditionType `db:"condition_type" json:"conditionType"`
	ConditionValue int64         `db:"condition_value" json:"conditionValue"`
	RewardPoints   int64         `db:"reward_points" json:"rewardPoints"`
}

// UserAchievement is an immutable unlock record.
type UserAchievement struct {
	Achievement
	UnlockedAt time.Time `db:"unlocked_at" json:"unlockedAt"`
}

// WeeklyGoal is the per-(user, week) learning target.
type WeeklyGoal struct {
	ID               int64      `db:"id" json:"id"`
	UserID           int64      `db:"user_id" json:"userId"`
	WeekStart        time.Time  `db:"week_start" json:"weekStart"`
	TargetWords      int        `db:"target_words" json:"targetWords"`
	LearnedWords     int        `db:"learned_words" json:"learnedWords"`
	IsCompleted      bool       `db:"is_completed" json:"isCompleted"`
	PenaltyAppliedAt *time.Time `db:"penalty_applied_at" json:"penaltyAppliedAt,omitempty"`
}

// ItemType is the inventory category of a shop item.
type ItemType string

const (
	ItemCharacter ItemType = "character"
	ItemGarden    ItemType = "garden"
)

// Valid reports whether t is a purchasable item type.
func (t ItemType) Valid() bool {
	return t == ItemCharacter || t == ItemGarden
}

// CatalogItem is a purchasable character or garden item.
type CatalogItem struct {
	ID          int64    `db:"id" json:"id"`
	ItemType    ItemType `json:"itemType"`
	Name        string   `db:"name" json:"name"`
	Kind        string   `db:"type" json:"type"`
	Description string   `db:"description" json:"description"`
	Price       int64    `db:"price" json:"price"`
	IsDefault   bool     `db:"is_default" json:"isDefault,omitempty"`
}

// InventoryItem is an owned item.
type InventoryItem struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	ItemID      int64     `db:"item_id" json:"itemId"`
	ItemType    ItemType  `db:"item_type" json:"itemType"`
	IsEquipped  bool      `db:"is_equipped" json:"isEquipped"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchasedAt"`
	Name        string    `json:"name,omitempty"`
	Kind        string    `json:"type,omitempty"`
}

// GardenPlacement is an item placed in the user's garden. Soft-deleted via IsActive.
type GardenPlacement struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	GardenItemID int64     `db:"garden_item_id" json:"gardenItemId"`
	PositionX    int       `db:"position_x" json:"positionX"`
	PositionY    int       `db:"position_y" json:"positionY"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	PlacedAt     time.Time `db:"placed_at" json:"placedAt"`
	Name         string    `json:"name,omitempty"`
	Kind         string    `json:"type,omitempty"`
}

// LedgerCause names why a balance changed.
type LedgerCause string

const (
	CauseLearn       LedgerCause = "learn"
	CauseReview      LedgerCause = "review"
	CausePractice    LedgerCause = "practice"
	CauseAchievement LedgerCause = "achievement"
	CausePurchase    LedgerCause = "purchase"
	CauseManual      LedgerCause = "manual"
)

// PointTransaction is the audit row written for every balance change.
type PointTransaction struct {
	ID          int64       `db:"id" json:"id"`
	UserID      int64       `db:"user_id" json:"userId"`
	Amount      int64       `db:"amount" json:"amount"`
	Cause       LedgerCause `db:"cause" json:"cause"`
	Description *string     `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// ReminderTarget is a Telegram-linked user with reviews due.
type ReminderTarget struct {
	UserID     int64
	TelegramID int64
	Nickname   string
	DueCount   int
}
