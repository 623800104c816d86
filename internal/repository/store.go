// Package repository provides data access layer implementations.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/pkg/db"
)

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles every repository over one Querier. A Store built on the pool
// runs statements independently; one handed out by InTx runs them all in a
// single transaction.
type Store struct {
	begin beginner

	Users        *UserRepository
	Transactions *TransactionRepository
	Words        *WordRepository
	Mastery      *MasteryRepository
	Records      *RecordRepository
	Achievements *AchievementRepository
	Goals        *GoalRepository
	Catalog      *CatalogRepository
	Inventory    *InventoryRepository
	Garden       *GardenRepository
}

// Pool is what NewStore needs from a connection pool. *pgxpool.Pool satisfies it.
type Pool interface {
	db.Querier
	beginner
}

// NewStore creates a Store backed by the pool.
func NewStore(pool Pool) *Store {
	s := newStore(pool)
	s.begin = pool
	return s
}

func newStore(q db.Querier) *Store {
	return &Store{
		Users:        NewUserRepository(q),
		Transactions: NewTransactionRepository(q),
		Words:        NewWordRepository(q),
		Mastery:      NewMasteryRepository(q),
		Records:      NewRecordRepository(q),
		Achievements: NewAchievementRepository(q),
		Goals:        NewGoalRepository(q),
		Catalog:      NewCatalogRepository(q),
		Inventory:    NewInventoryRepository(q),
		Garden:       NewGardenRepository(q),
	}
}

// InTx runs fn with a Store bound to one transaction. The transaction commits
// when fn returns nil and rolls back otherwise. Calling InTx on a Store that
// is already transactional reuses the open transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.begin == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.begin, func(tx pgx.Tx) error {
		return fn(newStore(tx))
	})
}
