package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"word-garden/internal/model"
	"word-garden/internal/repository"
)

// PenaltyItemCount is how many items an incomplete week costs.
const PenaltyItemCount = 2

// SelectPenaltyItems picks up to n unequipped items, oldest purchase first,
// ties broken by inventory ID. The input is not modified.
func SelectPenaltyItems(items []*model.InventoryItem, n int) []*model.InventoryItem {
	candidates := make([]*model.InventoryItem, 0, len(items))
	for _, it := range items {
		if !it.IsEquipped {
			candidates = append(candidates, it)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.PurchasedAt.Equal(b.PurchasedAt) {
			return a.PurchasedAt.Before(b.PurchasedAt)
		}
		return a.ID < b.ID
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// PenaltyEngine revokes owned items when a weekly goal is incomplete.
// It runs inside the caller's transaction and relies on the caller holding
// the user's locks.
type PenaltyEngine struct {
	items int
}

// NewPenaltyEngine creates a PenaltyEngine revoking PenaltyItemCount items.
func NewPenaltyEngine() *PenaltyEngine {
	return &PenaltyEngine{items: PenaltyItemCount}
}

// ApplyIfIncomplete revokes the oldest unequipped items when goal is
// incomplete. Each week is penalized at most once; the goal is stamped
// (in the store and on the passed struct) when the penalty is applied.
// Revoked garden items are also removed from the garden.
func (p *PenaltyEngine) ApplyIfIncomplete(ctx context.Context, tx *repository.Store, goal *model.WeeklyGoal, now time.Time) ([]*model.InventoryItem, error) {
	if goal.IsCompleted || goal.PenaltyAppliedAt != nil {
		return nil, nil
	}

	marked, err := tx.Goals.MarkPenalized(ctx, goal.ID, now)
	if err != nil {
		return nil, err
	}
	if !marked {
		return nil, nil
	}
	goal.PenaltyAppliedAt = &now

	owned, err := tx.Inventory.List(ctx, goal.UserID)
	if err != nil {
		return nil, err
	}

	revoked := SelectPenaltyItems(owned, p.items)
	for _, it := range revoked {
		if err := tx.Inventory.Delete(ctx, it.ID); err != nil {
			return nil, err
		}
		if it.ItemType == model.ItemGarden {
			if _, err := tx.Garden.Deactivate(ctx, goal.UserID, it.ItemID); err != nil {
				return nil, err
			}
		}
	}

	log.Info().
		Int64("user_id", goal.UserID).
		Time("week_start", goal.WeekStart).
		Int("learned", goal.LearnedWords).
		Int("target", goal.TargetWords).
		Int("revoked", len(revoked)).
		Msg("Weekly goal penalty applied")

	return revoked, nil
}
