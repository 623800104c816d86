package repository

import (
	"context"
	"fmt"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// GardenRepository persists garden placements. Removal is a soft delete.
type GardenRepository struct {
	db db.Querier
}

// NewGardenRepository creates a new GardenRepository instance.
func NewGardenRepository(q db.Querier) *GardenRepository {
	return &GardenRepository{db: q}
}

// Place puts an item in the garden, moving and reactivating an earlier placement.
func (r *GardenRepository) Place(ctx context.Context, userID, gardenItemID int64, x, y int) (*model.GardenPlacement, error) {
	const query = `
		INSERT INTO user_garden (user_id, garden_item_id, position_x, position_y, is_active, placed_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (user_id, garden_item_id)
		DO UPDATE SET position_x = $3, position_y = $4, is_active = TRUE, placed_at = NOW()
		RETURNING id, user_id, garden_item_id, position_x, position_y, is_active, placed_at
	`

	var p model.GardenPlacement
	err := r.db.QueryRow(ctx, query, userID, gardenItemID, x, y).Scan(
		&p.ID, &p.UserID, &p.GardenItemID, &p.PositionX, &p.PositionY, &p.IsActive, &p.PlacedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to place garden item: %w", err)
	}
	return &p, nil
}

// Deactivate soft-deletes a placement. It reports whether an active row changed.
func (r *GardenRepository) Deactivate(ctx context.Context, userID, gardenItemID int64) (bool, error) {
	const query = `
		UPDATE user_garden SET is_active = FALSE
		WHERE user_id = $1 AND garden_item_id = $2 AND is_active
	`

	tag, err := r.db.Exec(ctx, query, userID, gardenItemID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate garden item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListActive returns the user's active placements with item details.
func (r *GardenRepository) ListActive(ctx context.Context, userID int64) ([]*model.GardenPlacement, error) {
	const query = `
		SELECT ug.id, ug.user_id, ug.garden_item_id, ug.position_x, ug.position_y, ug.is_active, ug.placed_at,
			gi.name, gi.type
		FROM user_garden ug
		JOIN garden_items gi ON gi.id = ug.garden_item_id
		WHERE ug.user_id = $1 AND ug.is_active
		ORDER BY ug.placed_at ASC, ug.id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list garden: %w", err)
	}
	defer rows.Close()

	var list []*model.GardenPlacement
	for rows.Next() {
		var p model.GardenPlacement
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.GardenItemID, &p.PositionX, &p.PositionY, &p.IsActive, &p.PlacedAt,
			&p.Name, &p.Kind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan garden placement: %w", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating garden: %w", err)
	}
	return list, nil
}
