package repository

import (
	"context"
	"fmt"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// TransactionRepository persists the point ledger audit trail.
type TransactionRepository struct {
	db db.Querier
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(q db.Querier) *TransactionRepository {
	return &TransactionRepository{db: q}
}

// Create records a signed balance change and its cause.
func (r *TransactionRepository) Create(ctx context.Context, userID int64, amount int64, cause model.LedgerCause, description *string) (*model.PointTransaction, error) {
	const query = `
		INSERT INTO point_transactions (user_id, amount, cause, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, user_id, amount, cause, description, created_at
	`

	var tx model.PointTransaction
	err := r.db.QueryRow(ctx, query, userID, amount, cause, description).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Cause,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create point transaction: %w", err)
	}

	return &tx, nil
}

// GetByUserID retrieves a user's ledger entries, newest first.
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.PointTransaction, error) {
	const query = `
		SELECT id, user_id, amount, cause, description, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get point transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.PointTransaction
	for rows.Next() {
		var tx model.PointTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Amount,
			&tx.Cause,
			&tx.Description,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point transactions: %w", err)
	}

	return txs, nil
}
