package service

import (
	"context"

	"word-garden/internal/model"
	"word-garden/internal/repository"
)

// Catalog listing limits.
const (
	NewWordsDefaultLimit = 5
	WordListMaxLimit     = 200
)

// WordService exposes the read side of the vocabulary catalog.
type WordService struct {
	store *repository.Store
}

// NewWordService creates a new WordService instance.
func NewWordService(store *repository.Store) *WordService {
	return &WordService{store: store}
}

// List returns catalog words matching the filter.
func (s *WordService) List(ctx context.Context, f repository.WordFilter) ([]*model.Word, error) {
	if f.Limit > WordListMaxLimit {
		f.Limit = WordListMaxLimit
	}
	words, err := s.store.Words.List(ctx, f)
	if err != nil {
		return nil, translate(err, "list words")
	}
	return words, nil
}

// Get returns one word.
func (s *WordService) Get(ctx context.Context, id int64) (*model.Word, error) {
	w, err := s.store.Words.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "get word")
	}
	return w, nil
}

// Learned lists every word the user has learned.
func (s *WordService) Learned(ctx context.Context, userID int64) ([]*model.LearnedWord, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	words, err := s.store.Mastery.ListLearned(ctx, userID)
	if err != nil {
		return nil, translate(err, "list learned words")
	}
	return words, nil
}

// New suggests random words the user has not learned yet.
func (s *WordService) New(ctx context.Context, userID int64, limit int) ([]*model.Word, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	words, err := s.store.Words.ListNotLearned(ctx, userID, clampLimit(limit, NewWordsDefaultLimit, WordListMaxLimit))
	if err != nil {
		return nil, translate(err, "list new words")
	}
	return words, nil
}
