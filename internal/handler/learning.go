package handler

import (
	"github.com/gofiber/fiber/v2"

	"word-garden/internal/model"
	"word-garden/internal/service"
)

type learningHandler struct {
	learning LearningService
}

func (h *learningHandler) register(r fiber.Router) {
	r.Post("/learn", h.learn)
	r.Post("/review", h.review)
	r.Post("/practice", h.practice)
	r.Get("/history/:userId", h.history)
}

type outcomeRequest struct {
	UserID    int64         `json:"userId"`
	WordID    int64         `json:"wordId"`
	Result    model.Outcome `json:"result"`
	TimeSpent int           `json:"timeSpent"`
}

func (r *outcomeRequest) parse(c *fiber.Ctx) error {
	if err := parseBody(c, r); err != nil {
		return err
	}
	if r.UserID <= 0 || r.WordID <= 0 || r.Result == "" {
		return missingFields()
	}
	return nil
}

func outcomeResponse(res *service.OutcomeResult) fiber.Map {
	return fiber.Map{
		"success":      true,
		"pointsEarned": res.PointsEarned,
		"masteryLevel": res.MasteryLevel,
		"nextReview":   res.NextReviewAt,
		"points":       res.Points,
	}
}

func (h *learningHandler) learn(c *fiber.Ctx) error {
	var req outcomeRequest
	if err := req.parse(c); err != nil {
		return err
	}
	res, err := h.learning.Learn(c.UserContext(), req.UserID, req.WordID, req.Result, req.TimeSpent)
	if err != nil {
		return err
	}
	return c.JSON(outcomeResponse(res))
}

func (h *learningHandler) review(c *fiber.Ctx) error {
	var req outcomeRequest
	if err := req.parse(c); err != nil {
		return err
	}
	res, err := h.learning.Review(c.UserContext(), req.UserID, req.WordID, req.Result, req.TimeSpent)
	if err != nil {
		return err
	}
	return c.JSON(outcomeResponse(res))
}

type practiceRequest struct {
	UserID         int64  `json:"userId"`
	SessionType    string `json:"sessionType"`
	TotalQuestions *int   `json:"totalQuestions"`
	CorrectAnswers *int   `json:"correctAnswers"`
	TimeSpent      int    `json:"timeSpent"`
}

func (h *learningHandler) practice(c *fiber.Ctx) error {
	var req practiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.UserID <= 0 || req.TotalQuestions == nil || req.CorrectAnswers == nil {
		return missingFields()
	}

	session, err := h.learning.Practice(c.UserContext(), req.UserID, service.PracticeInput{
		SessionType:    req.SessionType,
		TotalQuestions: *req.TotalQuestions,
		CorrectAnswers: *req.CorrectAnswers,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "pointsEarned": session.PointsEarned})
}

func (h *learningHandler) history(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	records, err := h.learning.History(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(records)
}
