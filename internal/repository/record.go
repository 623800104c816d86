package repository

import (
	"context"
	"fmt"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// RecordRepository appends learning records and practice sessions.
type RecordRepository struct {
	db db.Querier
}

// NewRecordRepository creates a new RecordRepository instance.
func NewRecordRepository(q db.Querier) *RecordRepository {
	return &RecordRepository{db: q}
}

// Append writes one learning record. Records are never updated or deleted.
func (r *RecordRepository) Append(ctx context.Context, rec *model.LearningRecord) error {
	const query = `
		INSERT INTO learning_records (user_id, word_id, record_type, result, time_spent, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, rec.UserID, rec.WordID, rec.RecordType, rec.Result, rec.TimeSpent).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append learning record: %w", err)
	}
	return nil
}

// CountByType counts a user's records of one type.
func (r *RecordRepository) CountByType(ctx context.Context, userID int64, recordType model.RecordType) (int64, error) {
	const query = `SELECT COUNT(*) FROM learning_records WHERE user_id = $1 AND record_type = $2`

	var n int64
	if err := r.db.QueryRow(ctx, query, userID, recordType).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count learning records: %w", err)
	}
	return n, nil
}

// History returns a user's most recent records with their word text.
func (r *RecordRepository) History(ctx context.Context, userID int64, limit int) ([]*model.LearningRecord, error) {
	const query = `
		SELECT lr.id, lr.user_id, lr.word_id, w.word, w.meaning, lr.record_type, lr.result, lr.time_spent, lr.created_at
		FROM learning_records lr
		JOIN words w ON w.id = lr.word_id
		WHERE lr.user_id = $1
		ORDER BY lr.created_at DESC, lr.id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get learning history: %w", err)
	}
	defer rows.Close()

	var records []*model.LearningRecord
	for rows.Next() {
		var rec model.LearningRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.WordID,
			&rec.Word,
			&rec.Meaning,
			&rec.RecordType,
			&rec.Result,
			&rec.TimeSpent,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan learning record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning records: %w", err)
	}
	return records, nil
}

// CreatePracticeSession stores a scored practice run.
func (r *RecordRepository) CreatePracticeSession(ctx context.Context, s *model.PracticeSession) error {
	const query = `
		INSERT INTO practice_sessions (user_id, session_type, total_questions, correct_answers, time_spent, points_earned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		s.UserID, s.SessionType, s.TotalQuestions, s.CorrectAnswers, s.TimeSpent, s.PointsEarned,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create practice session: %w", err)
	}
	return nil
}
