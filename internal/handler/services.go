// Package handler provides the HTTP API handlers.
package handler

import (
	"context"

	"word-garden/internal/model"
	"word-garden/internal/repository"
	"word-garden/internal/service"
)

// AccountService is what the user routes need.
type AccountService interface {
	Login(ctx context.Context, nickname string) (*model.User, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	Stats(ctx context.Context, userID int64) (*model.UserStats, error)
	AdjustPoints(ctx context.Context, userID, points int64, op service.PointsOperation) (int64, error)
	Transactions(ctx context.Context, userID int64, limit int) ([]*model.PointTransaction, error)
}

// RankingService is what the leaderboard route needs.
type RankingService interface {
	TopUsers(ctx context.Context, limit int) ([]*model.User, error)
}

// WordService is what the word routes need.
type WordService interface {
	List(ctx context.Context, f repository.WordFilter) ([]*model.Word, error)
	Get(ctx context.Context, id int64) (*model.Word, error)
	Learned(ctx context.Context, userID int64) ([]*model.LearnedWord, error)
	New(ctx context.Context, userID int64, limit int) ([]*model.Word, error)
}

// LearningService is what the learning routes need.
type LearningService interface {
	Learn(ctx context.Context, userID, wordID int64, outcome model.Outcome, timeSpent int) (*service.OutcomeResult, error)
	Review(ctx context.Context, userID, wordID int64, outcome model.Outcome, timeSpent int) (*service.OutcomeResult, error)
	Practice(ctx context.Context, userID int64, in service.PracticeInput) (*model.PracticeSession, error)
	ReviewDue(ctx context.Context, userID int64) ([]*model.LearnedWord, error)
	History(ctx context.Context, userID int64, limit int) ([]*model.LearningRecord, error)
}

// ShopService is what the shop, inventory and garden routes need.
type ShopService interface {
	Items(ctx context.Context, itemType model.ItemType) ([]*model.CatalogItem, error)
	Purchase(ctx context.Context, userID, itemID int64, itemType model.ItemType) (*service.PurchaseResult, error)
	Equip(ctx context.Context, userID, itemID int64, itemType model.ItemType) error
	Inventory(ctx context.Context, userID int64) ([]*model.InventoryItem, error)
	Garden(ctx context.Context, userID int64) ([]*model.GardenPlacement, error)
	Place(ctx context.Context, userID, gardenItemID int64, x, y int) (*model.GardenPlacement, error)
	Remove(ctx context.Context, userID, gardenItemID int64) error
}

// AchievementService is what the achievement routes need.
type AchievementService interface {
	Catalog(ctx context.Context) ([]*model.Achievement, error)
	Unlocked(ctx context.Context, userID int64) ([]*model.UserAchievement, error)
	CheckAndUnlock(ctx context.Context, userID int64) (*service.UnlockResult, error)
}

// GoalService is what the weekly goal routes need.
type GoalService interface {
	Recompute(ctx context.Context, userID int64) (*model.WeeklyGoal, error)
	Check(ctx context.Context, userID int64) (*service.GoalCheckResult, error)
}

// Services bundles the dependencies of the HTTP API.
type Services struct {
	Accounts     AccountService
	Ranking      RankingService
	Words        WordService
	Learning     LearningService
	Shop         ShopService
	Achievements AchievementService
	Goals        GoalService
}
