package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// ErrMasteryNotFound is returned when a user has never learned a word.
var ErrMasteryNotFound = errors.New("word not learned by user")

const masteryColumns = `id, user_id, word_id, mastery_level, review_count, next_review_at, learned_at`

func masteryDest(m *model.MasteryRecord) []any {
	return []any{&m.ID, &m.UserID, &m.WordID, &m.MasteryLevel, &m.ReviewCount, &m.NextReviewAt, &m.LearnedAt}
}

// MasteryRepository persists per-(user, word) review state.
type MasteryRepository struct {
	db db.Querier
}

// NewMasteryRepository creates a new MasteryRepository instance.
func NewMasteryRepository(q db.Querier) *MasteryRepository {
	return &MasteryRepository{db: q}
}

// Get retrieves the mastery record for a (user, word) pair.
func (r *MasteryRepository) Get(ctx context.Context, userID, wordID int64) (*model.MasteryRecord, error) {
	query := `SELECT ` + masteryColumns + ` FROM user_words WHERE user_id = $1 AND word_id = $2`

	var m model.MasteryRecord
	if err := r.db.QueryRow(ctx, query, userID, wordID).Scan(masteryDest(&m)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMasteryNotFound
		}
		return nil, fmt.Errorf("failed to get mastery record: %w", err)
	}
	return &m, nil
}

// InsertFirst creates the record at level 0 unless the pair already exists.
// The bool is false when a record was already present; nothing is written then.
func (r *MasteryRepository) InsertFirst(ctx context.Context, userID, wordID int64, nextReviewAt, learnedAt time.Time) (*model.MasteryRecord, bool, error) {
	query := `
		INSERT INTO user_words (user_id, word_id, mastery_level, review_count, next_review_at, learned_at)
		VALUES ($1, $2, 0, 0, $3, $4)
		ON CONFLICT (user_id, word_id) DO NOTHING
		RETURNING ` + masteryColumns

	var m model.MasteryRecord
	err := r.db.QueryRow(ctx, query, userID, wordID, nextReviewAt, learnedAt).Scan(masteryDest(&m)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		if isForeignKeyViolation(err) {
			return nil, false, ErrWordNotFound
		}
		return nil, false, fmt.Errorf("failed to insert mastery record: %w", err)
	}
	return &m, true, nil
}

// UpdateState writes a new level and next review time, optionally counting a review.
func (r *MasteryRepository) UpdateState(ctx context.Context, id int64, level int, nextReviewAt time.Time, countReview bool) (*model.MasteryRecord, error) {
	query := `
		UPDATE user_words
		SET mastery_level = $2,
			next_review_at = $3,
			review_count = review_count + CASE WHEN $4 THEN 1 ELSE 0 END
		WHERE id = $1
		RETURNING ` + masteryColumns

	var m model.MasteryRecord
	if err := r.db.QueryRow(ctx, query, id, level, nextReviewAt, countReview).Scan(masteryDest(&m)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMasteryNotFound
		}
		return nil, fmt.Errorf("failed to update mastery record: %w", err)
	}
	return &m, nil
}

// ListLearned returns all words a user has learned, most recent first.
func (r *MasteryRepository) ListLearned(ctx context.Context, userID int64) ([]*model.LearnedWord, error) {
	query := `
		SELECT ` + wordColumns + `, uw.mastery_level, uw.review_count, uw.next_review_at, uw.learned_at
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1
		ORDER BY uw.learned_at DESC, uw.id DESC
	`
	return r.queryLearned(ctx, query, userID)
}

// ListDue returns words whose next review time has passed, soonest first.
func (r *MasteryRepository) ListDue(ctx context.Context, userID int64, now time.Time, limit int) ([]*model.LearnedWord, error) {
	query := `
		SELECT ` + wordColumns + `, uw.mastery_level, uw.review_count, uw.next_review_at, uw.learned_at
		FROM user_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = $1 AND uw.next_review_at <= $2
		ORDER BY uw.next_review_at ASC, uw.id ASC
		LIMIT $3
	`
	return r.queryLearned(ctx, query, userID, now, limit)
}

// CountLearned counts every word the user has learned.
func (r *MasteryRepository) CountLearned(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM user_words WHERE user_id = $1`

	var n int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count learned words: %w", err)
	}
	return n, nil
}

// CountLearnedSince counts words first learned at or after since.
func (r *MasteryRepository) CountLearnedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM user_words WHERE user_id = $1 AND learned_at >= $2`

	var n int
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count words learned since %s: %w", since.Format(time.RFC3339), err)
	}
	return n, nil
}

// ListReminderTargets returns Telegram-linked users with at least one review due.
func (r *MasteryRepository) ListReminderTargets(ctx context.Context, now time.Time) ([]*model.ReminderTarget, error) {
	const query = `
		SELECT u.id, u.telegram_id, u.nickname, COUNT(*)
		FROM user_words uw
		JOIN users u ON u.id = uw.user_id
		WHERE u.telegram_id IS NOT NULL AND uw.next_review_at <= $1
		GROUP BY u.id, u.telegram_id, u.nickname
		ORDER BY u.id
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []*model.ReminderTarget
	for rows.Next() {
		var t model.ReminderTarget
		if err := rows.Scan(&t.UserID, &t.TelegramID, &t.Nickname, &t.DueCount); err != nil {
			return nil, fmt.Errorf("failed to scan reminder target: %w", err)
		}
		targets = append(targets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder targets: %w", err)
	}
	return targets, nil
}

func (r *MasteryRepository) queryLearned(ctx context.Context, query string, args ...any) ([]*model.LearnedWord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned words: %w", err)
	}
	defer rows.Close()

	var words []*model.LearnedWord
	for rows.Next() {
		var lw model.LearnedWord
		dest := append(wordDest(&lw.Word), &lw.MasteryLevel, &lw.ReviewCount, &lw.NextReviewAt, &lw.LearnedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan learned word: %w", err)
		}
		words = append(words, &lw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learned words: %w", err)
	}
	return words, nil
}
