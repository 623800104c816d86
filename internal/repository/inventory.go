package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// Inventory errors.
var (
	ErrItemNotFound     = errors.New("item not found")
	ErrItemAlreadyOwned = errors.New("item already owned")
	ErrItemNotOwned     = errors.New("item not owned")
)

// InventoryRepository handles owned item persistence.
type InventoryRepository struct {
	db db.Querier
}

// NewInventoryRepository creates a new InventoryRepository instance.
func NewInventoryRepository(q db.Querier) *InventoryRepository {
	return &InventoryRepository{db: q}
}

// ========== Ownership ==========

// Add records a purchase. Returns ErrItemAlreadyOwned on a repeat purchase.
func (r *InventoryRepository) Add(ctx context.Context, userID, itemID int64, itemType model.ItemType) (*model.InventoryItem, error) {
	const query = `
		INSERT INTO user_inventory (user_id, item_id, item_type, is_equipped, purchased_at)
		VALUES ($1, $2, $3, FALSE, NOW())
		ON CONFLICT (user_id, item_id, item_type) DO NOTHING
		RETURNING id, user_id, item_id, item_type, is_equipped, purchased_at
	`

	var it model.InventoryItem
	err := r.db.QueryRow(ctx, query, userID, itemID, itemType).Scan(
		&it.ID, &it.UserID, &it.ItemID, &it.ItemType, &it.IsEquipped, &it.PurchasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemAlreadyOwned
		}
		return nil, fmt.Errorf("failed to add inventory item: %w", err)
	}
	return &it, nil
}

// Owns reports whether the user owns the item.
func (r *InventoryRepository) Owns(ctx context.Context, userID, itemID int64, itemType model.ItemType) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM user_inventory
			WHERE user_id = $1 AND item_id = $2 AND item_type = $3
		)
	`

	var owned bool
	if err := r.db.QueryRow(ctx, query, userID, itemID, itemType).Scan(&owned); err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return owned, nil
}

// List returns everything a user owns with catalog names, oldest purchase first.
func (r *InventoryRepository) List(ctx context.Context, userID int64) ([]*model.InventoryItem, error) {
	const query = `
		SELECT ui.id, ui.user_id, ui.item_id, ui.item_type, ui.is_equipped, ui.purchased_at,
			COALESCE(ci.name, gi.name, ''), COALESCE(ci.type, gi.type, '')
		FROM user_inventory ui
		LEFT JOIN character_items ci ON ui.item_type = 'character' AND ci.id = ui.item_id
		LEFT JOIN garden_items gi ON ui.item_type = 'garden' AND gi.id = ui.item_id
		WHERE ui.user_id = $1
		ORDER BY ui.purchased_at ASC, ui.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []*model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ItemID, &it.ItemType, &it.IsEquipped, &it.PurchasedAt,
			&it.Name, &it.Kind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}
	return items, nil
}

// Delete removes one owned row.
func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotOwned
	}
	return nil
}

// ========== Equip ==========

// Equip marks one owned item as equipped and clears every other equip of the
// same type. Returns ErrItemNotOwned when the user does not own the item.
func (r *InventoryRepository) Equip(ctx context.Context, userID, itemID int64, itemType model.ItemType) error {
	owned, err := r.Owns(ctx, userID, itemID, itemType)
	if err != nil {
		return err
	}
	if !owned {
		return ErrItemNotOwned
	}

	const clear = `
		UPDATE user_inventory SET is_equipped = FALSE
		WHERE user_id = $1 AND item_type = $2 AND is_equipped
	`
	if _, err := r.db.Exec(ctx, clear, userID, itemType); err != nil {
		return fmt.Errorf("failed to clear equipped items: %w", err)
	}

	const set = `
		UPDATE user_inventory SET is_equipped = TRUE
		WHERE user_id = $1 AND item_id = $2 AND item_type = $3
	`
	if _, err := r.db.Exec(ctx, set, userID, itemID, itemType); err != nil {
		return fmt.Errorf("failed to equip item: %w", err)
	}
	return nil
}
