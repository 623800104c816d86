package handler

import (
	"github.com/gofiber/fiber/v2"

	"word-garden/internal/model"
)

type gameHandler struct {
	shop         ShopService
	achievements AchievementService
	goals        GoalService
}

func (h *gameHandler) register(r fiber.Router) {
	r.Get("/character-items", h.items(model.ItemCharacter))
	r.Get("/garden-items", h.items(model.ItemGarden))
	r.Get("/inventory/:userId", h.inventory)
	r.Post("/purchase", h.purchase)
	r.Post("/equip", h.equip)

	r.Get("/garden/:userId", h.garden)
	r.Post("/garden/place", h.place)
	r.Delete("/garden/:userId/:gardenItemId", h.remove)

	r.Get("/achievements", h.achievementCatalog)
	r.Get("/achievements/:userId", h.userAchievements)
	r.Post("/achievements/check", h.checkAchievements)

	r.Get("/weekly-goals/:userId", h.weeklyGoal)
	r.Post("/weekly-goals/update", h.updateWeeklyGoal)
	r.Post("/weekly-goals/check", h.checkWeeklyGoal)
	r.Post("/penalty", h.checkWeeklyGoal)
}

// userRequest is the body of routes that only name a user.
type userRequest struct {
	UserID int64 `json:"userId"`
}

func (r *userRequest) parse(c *fiber.Ctx) error {
	if err := parseBody(c, r); err != nil {
		return err
	}
	if r.UserID <= 0 {
		return missingFields()
	}
	return nil
}

type itemRequest struct {
	UserID   int64          `json:"userId"`
	ItemID   int64          `json:"itemId"`
	ItemType model.ItemType `json:"itemType"`
}

func (r *itemRequest) parse(c *fiber.Ctx) error {
	if err := parseBody(c, r); err != nil {
		return err
	}
	if r.UserID <= 0 || r.ItemID <= 0 || r.ItemType == "" {
		return missingFields()
	}
	return nil
}

func (h *gameHandler) items(itemType model.ItemType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := h.shop.Items(c.UserContext(), itemType)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

func (h *gameHandler) inventory(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	items, err := h.shop.Inventory(c.UserContext(), userID)
	if err != nil {
		return err
	}

	characterItems := []*model.InventoryItem{}
	gardenItems := []*model.InventoryItem{}
	for _, it := range items {
		if it.ItemType == model.ItemGarden {
			gardenItems = append(gardenItems, it)
		} else {
			characterItems = append(characterItems, it)
		}
	}
	return c.JSON(fiber.Map{
		"characterItems": characterItems,
		"gardenItems":    gardenItems,
	})
}

func (h *gameHandler) purchase(c *fiber.Ctx) error {
	var req itemRequest
	if err := req.parse(c); err != nil {
		return err
	}
	res, err := h.shop.Purchase(c.UserContext(), req.UserID, req.ItemID, req.ItemType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "points": res.Points})
}

func (h *gameHandler) equip(c *fiber.Ctx) error {
	var req itemRequest
	if err := req.parse(c); err != nil {
		return err
	}
	if err := h.shop.Equip(c.UserContext(), req.UserID, req.ItemID, req.ItemType); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *gameHandler) garden(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	placements, err := h.shop.Garden(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(placements)
}

type placeRequest struct {
	UserID       int64 `json:"userId"`
	GardenItemID int64 `json:"gardenItemId"`
	PositionX    *int  `json:"positionX"`
	PositionY    *int  `json:"positionY"`
}

func (h *gameHandler) place(c *fiber.Ctx) error {
	var req placeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.UserID <= 0 || req.GardenItemID <= 0 || req.PositionX == nil || req.PositionY == nil {
		return missingFields()
	}

	placement, err := h.shop.Place(c.UserContext(), req.UserID, req.GardenItemID, *req.PositionX, *req.PositionY)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "placement": placement})
}

func (h *gameHandler) remove(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "gardenItemId")
	if err != nil {
		return err
	}
	if err := h.shop.Remove(c.UserContext(), userID, itemID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *gameHandler) achievementCatalog(c *fiber.Ctx) error {
	list, err := h.achievements.Catalog(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *gameHandler) userAchievements(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	list, err := h.achievements.Unlocked(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *gameHandler) checkAchievements(c *fiber.Ctx) error {
	var req userRequest
	if err := req.parse(c); err != nil {
		return err
	}
	res, err := h.achievements.CheckAndUnlock(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *gameHandler) weeklyGoal(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	goal, err := h.goals.Recompute(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(goal)
}

func (h *gameHandler) updateWeeklyGoal(c *fiber.Ctx) error {
	var req userRequest
	if err := req.parse(c); err != nil {
		return err
	}
	goal, err := h.goals.Recompute(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"learnedWords": goal.LearnedWords,
		"isCompleted":  goal.IsCompleted,
		"goal":         goal,
	})
}

func (h *gameHandler) checkWeeklyGoal(c *fiber.Ctx) error {
	var req userRequest
	if err := req.parse(c); err != nil {
		return err
	}
	res, err := h.goals.Check(c.UserContext(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"penalty":      len(res.Revoked) > 0,
		"removedItems": res.Revoked,
		"goal":         res.Goal,
	})
}
