package handler

import (
	"github.com/gofiber/fiber/v2"

	"word-garden/internal/repository"
)

// WordListDefaultLimit applies when ?limit= is absent.
const WordListDefaultLimit = 20

type wordHandler struct {
	words    WordService
	learning LearningService
}

func (h *wordHandler) register(r fiber.Router) {
	r.Get("/", h.list)
	r.Get("/user/:userId/learned", h.learned)
	r.Get("/user/:userId/review", h.review)
	r.Get("/user/:userId/new", h.fresh)
	r.Get("/:id", h.get)
}

func (h *wordHandler) list(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", WordListDefaultLimit)
	if limit <= 0 {
		limit = WordListDefaultLimit
	}
	words, err := h.words.List(c.UserContext(), repository.WordFilter{
		Difficulty: c.Query("difficulty"),
		Category:   c.Query("category"),
		Limit:      limit,
		Random:     c.QueryBool("random", true),
	})
	if err != nil {
		return err
	}
	return c.JSON(words)
}

func (h *wordHandler) get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	word, err := h.words.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(word)
}

func (h *wordHandler) learned(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	words, err := h.words.Learned(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(words)
}

func (h *wordHandler) review(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	words, err := h.learning.ReviewDue(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(words)
}

func (h *wordHandler) fresh(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	words, err := h.words.New(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(words)
}
