package service

import (
	"context"

	"word-garden/internal/model"
	"word-garden/internal/repository"
)

// Leaderboard limits.
const (
	TopUsersDefaultLimit = 10
	TopUsersMaxLimit     = 100
)

// RankingService handles leaderboard queries.
type RankingService struct {
	store *repository.Store
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(store *repository.Store) *RankingService {
	return &RankingService{store: store}
}

// TopUsers returns the users with the most points.
func (s *RankingService) TopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	users, err := s.store.Users.GetTopUsers(ctx, clampLimit(limit, TopUsersDefaultLimit, TopUsersMaxLimit))
	if err != nil {
		return nil, translate(err, "list top users")
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}
