package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/repository"
)

// PurchaseResult is returned after a successful purchase.
type PurchaseResult struct {
	Item   *model.CatalogItem   `json:"item"`
	Owned  *model.InventoryItem `json:"owned"`
	Points int64                `json:"points"`
}

// ShopService handles the item catalogs, purchases, equipping and the garden.
type ShopService struct {
	store  *repository.Store
	locks  *lock.UserLock
	ledger *Ledger
}

// NewShopService creates a new ShopService instance.
func NewShopService(store *repository.Store, locks *lock.UserLock, ledger *Ledger) *ShopService {
	return &ShopService{
		store:  store,
		locks:  locks,
		ledger: ledger,
	}
}

// Items lists the catalog for one item type, cheapest first.
func (s *ShopService) Items(ctx context.Context, itemType model.ItemType) ([]*model.CatalogItem, error) {
	if err := validateItemType(itemType); err != nil {
		return nil, err
	}
	items, err := s.store.Catalog.List(ctx, itemType)
	if err != nil {
		return nil, translate(err, "list items")
	}
	return items, nil
}

// Purchase buys an item for the user.
func (s *ShopService) Purchase(ctx context.Context, userID, itemID int64, itemType model.ItemType) (*PurchaseResult, error) {
	if err := validateItemType(itemType); err != nil {
		return nil, err
	}

	var res PurchaseResult
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, user *model.User) error {
		item, err := tx.Catalog.Get(ctx, itemType, itemID)
		if err != nil {
			return err
		}

		owned, err := tx.Inventory.Owns(ctx, userID, itemID, itemType)
		if err != nil {
			return err
		}
		if owned {
			return apperr.Conflict("Item already owned")
		}
		if user.Points < item.Price {
			return apperr.New(apperr.KindInsufficientBalance, "Not enough points")
		}

		res.Points, err = s.ledger.Debit(ctx, tx, userID, item.Price, model.CausePurchase, "purchase "+item.Name)
		if err != nil {
			return err
		}
		res.Owned, err = tx.Inventory.Add(ctx, userID, itemID, itemType)
		if err != nil {
			return err
		}
		res.Item = item
		return nil
	})
	if err != nil {
		return nil, translate(err, "purchase")
	}

	log.Info().
		Int64("user_id", userID).
		Int64("item_id", itemID).
		Str("item_type", string(itemType)).
		Int64("price", res.Item.Price).
		Int64("points", res.Points).
		Msg("Item purchased")

	return &res, nil
}

// Equip makes an owned item the equipped one of its type.
func (s *ShopService) Equip(ctx context.Context, userID, itemID int64, itemType model.ItemType) error {
	if err := validateItemType(itemType); err != nil {
		return err
	}

	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		return tx.Inventory.Equip(ctx, userID, itemID, itemType)
	})
	return translate(err, "equip")
}

// Inventory lists everything the user owns.
func (s *ShopService) Inventory(ctx context.Context, userID int64) ([]*model.InventoryItem, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	items, err := s.store.Inventory.List(ctx, userID)
	if err != nil {
		return nil, translate(err, "list inventory")
	}
	if items == nil {
		items = []*model.InventoryItem{}
	}
	return items, nil
}

// Garden lists the user's active placements.
func (s *ShopService) Garden(ctx context.Context, userID int64) ([]*model.GardenPlacement, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err, "get user")
	}
	list, err := s.store.Garden.ListActive(ctx, userID)
	if err != nil {
		return nil, translate(err, "list garden")
	}
	if list == nil {
		list = []*model.GardenPlacement{}
	}
	return list, nil
}

// Place puts an owned garden item at a position.
func (s *ShopService) Place(ctx context.Context, userID, gardenItemID int64, x, y int) (*model.GardenPlacement, error) {
	var placement *model.GardenPlacement
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		owned, err := tx.Inventory.Owns(ctx, userID, gardenItemID, model.ItemGarden)
		if err != nil {
			return err
		}
		if !owned {
			return repository.ErrItemNotOwned
		}
		placement, err = tx.Garden.Place(ctx, userID, gardenItemID, x, y)
		return err
	})
	if err != nil {
		return nil, translate(err, "place garden item")
	}
	return placement, nil
}

// Remove takes an item out of the garden. The item stays owned.
func (s *ShopService) Remove(ctx context.Context, userID, gardenItemID int64) error {
	err := runLocked(ctx, s.store, s.locks, userID, func(tx *repository.Store, _ *model.User) error {
		removed, err := tx.Garden.Deactivate(ctx, userID, gardenItemID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NotFound("Item is not placed in the garden")
		}
		return nil
	})
	return translate(err, "remove garden item")
}

func validateItemType(t model.ItemType) error {
	if !t.Valid() {
		return apperr.InvalidInput(fmt.Sprintf("Invalid item type %q", t))
	}
	return nil
}
