package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// ErrWordNotFound is returned when a catalog word does not exist.
var ErrWordNotFound = errors.New("word not found")

const wordColumns = `w.id, w.word, w.phonetic, w.meaning, w.example, w.example_translation,
	w.context_description, w.difficulty, w.category, w.image_url, w.created_at`

func wordDest(w *model.Word) []any {
	return []any{
		&w.ID, &w.Word, &w.Phonetic, &w.Meaning, &w.Example, &w.ExampleTranslation,
		&w.ContextDescription, &w.Difficulty, &w.Category, &w.ImageURL, &w.CreatedAt,
	}
}

// WordFilter narrows catalog listings.
type WordFilter struct {
	Difficulty string
	Category   string
	Limit      int
	Random     bool
}

// WordRepository reads and extends the vocabulary catalog.
type WordRepository struct {
	db db.Querier
}

// NewWordRepository creates a new WordRepository instance.
func NewWordRepository(q db.Querier) *WordRepository {
	return &WordRepository{db: q}
}

// GetByID retrieves a word by ID.
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*model.Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words w WHERE w.id = $1`

	var w model.Word
	if err := r.db.QueryRow(ctx, query, id).Scan(wordDest(&w)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWordNotFound
		}
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return &w, nil
}

// List returns catalog words matching the filter.
func (r *WordRepository) List(ctx context.Context, f WordFilter) ([]*model.Word, error) {
	var (
		conds []string
		args  []any
	)
	if f.Difficulty != "" {
		args = append(args, f.Difficulty)
		conds = append(conds, fmt.Sprintf("w.difficulty = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("w.category = $%d", len(args)))
	}

	query := `SELECT ` + wordColumns + ` FROM words w`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if f.Random {
		query += ` ORDER BY RANDOM()`
	} else {
		query += ` ORDER BY w.id`
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryWords(ctx, query, args...)
}

// ListNotLearned returns random words the user has not learned yet.
func (r *WordRepository) ListNotLearned(ctx context.Context, userID int64, limit int) ([]*model.Word, error) {
	query := `
		SELECT ` + wordColumns + `
		FROM words w
		WHERE NOT EXISTS (
			SELECT 1 FROM user_words uw WHERE uw.user_id = $1 AND uw.word_id = w.id
		)
		ORDER BY RANDOM()
		LIMIT $2
	`
	return r.queryWords(ctx, query, userID, limit)
}

// Upsert inserts a word, or refreshes its details when the same word
// (case-insensitive) already exists. The bool reports whether it was created.
func (r *WordRepository) Upsert(ctx context.Context, w *model.Word) (bool, error) {
	const update = `
		UPDATE words
		SET phonetic = $2, meaning = $3, example = $4, example_translation = $5,
			difficulty = $6, category = $7
		WHERE LOWER(word) = LOWER($1)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, update,
		w.Word, w.Phonetic, w.Meaning, w.Example, w.ExampleTranslation, w.Difficulty, w.Category,
	).Scan(&w.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("failed to update word: %w", err)
	}

	const insert = `
		INSERT INTO words (word, phonetic, meaning, example, example_translation, difficulty, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err = r.db.QueryRow(ctx, insert,
		w.Word, w.Phonetic, w.Meaning, w.Example, w.ExampleTranslation, w.Difficulty, w.Category,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert word: %w", err)
	}
	return true, nil
}

func (r *WordRepository) queryWords(ctx context.Context, query string, args ...any) ([]*model.Word, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	var words []*model.Word
	for rows.Next() {
		var w model.Word
		if err := rows.Scan(wordDest(&w)...); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating words: %w", err)
	}
	return words, nil
}
