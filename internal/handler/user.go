package handler

import (
	"github.com/gofiber/fiber/v2"

	"word-garden/internal/apperr"
	"word-garden/internal/service"
)

type userHandler struct {
	accounts AccountService
	ranking  RankingService
}

func (h *userHandler) register(r fiber.Router) {
	r.Post("/login", h.login)
	r.Get("/top", h.top)
	r.Get("/:id", h.get)
	r.Get("/:id/stats", h.stats)
	r.Get("/:id/transactions", h.transactions)
	r.Put("/:id/points", h.adjustPoints)
}

type loginRequest struct {
	Nickname string `json:"nickname"`
}

func (h *userHandler) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.accounts.Login(c.UserContext(), req.Nickname)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *userHandler) get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.accounts.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *userHandler) stats(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.accounts.Stats(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (h *userHandler) transactions(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	txs, err := h.accounts.Transactions(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(txs)
}

type pointsRequest struct {
	Points    int64  `json:"points"`
	Operation string `json:"operation"`
}

func (h *userHandler) adjustPoints(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req pointsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Points <= 0 {
		return apperr.InvalidInput("Invalid points value")
	}

	points, err := h.accounts.AdjustPoints(c.UserContext(), id, req.Points, service.PointsOperation(req.Operation))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"points": points})
}

func (h *userHandler) top(c *fiber.Ctx) error {
	users, err := h.ranking.TopUsers(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(users)
}
