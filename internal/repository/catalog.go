package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"word-garden/internal/model"
	"word-garden/internal/pkg/db"
)

// CatalogRepository reads the character and garden shop catalogs.
type CatalogRepository struct {
	db db.Querier
}

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(q db.Querier) *CatalogRepository {
	return &CatalogRepository{db: q}
}

// List returns every item of one type, cheapest first.
func (r *CatalogRepository) List(ctx context.Context, itemType model.ItemType) ([]*model.CatalogItem, error) {
	query, err := catalogQuery(itemType, ` ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s items: %w", itemType, err)
	}
	defer rows.Close()

	var items []*model.CatalogItem
	for rows.Next() {
		it := model.CatalogItem{ItemType: itemType}
		if err := rows.Scan(&it.ID, &it.Name, &it.Kind, &it.Description, &it.Price, &it.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan %s item: %w", itemType, err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s items: %w", itemType, err)
	}
	return items, nil
}

// Get retrieves one catalog item.
func (r *CatalogRepository) Get(ctx context.Context, itemType model.ItemType, id int64) (*model.CatalogItem, error) {
	query, err := catalogQuery(itemType, ` WHERE id = $1`)
	if err != nil {
		return nil, err
	}

	it := model.CatalogItem{ItemType: itemType}
	err = r.db.QueryRow(ctx, query, id).Scan(&it.ID, &it.Name, &it.Kind, &it.Description, &it.Price, &it.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get %s item: %w", itemType, err)
	}
	return &it, nil
}

func catalogQuery(itemType model.ItemType, suffix string) (string, error) {
	switch itemType {
	case model.ItemCharacter:
		return `SELECT id, name, type, description, price, is_default FROM character_items` + suffix, nil
	case model.ItemGarden:
		return `SELECT id, name, type, description, price, FALSE FROM garden_items` + suffix, nil
	default:
		return "", fmt.Errorf("unknown item type %q", itemType)
	}
}
