package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"word-garden/internal/apperr"
)

// idParam parses a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("Invalid " + name)
	}
	return id, nil
}

// parseBody decodes the JSON body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperr.InvalidInput("Invalid request body")
	}
	return nil
}

func missingFields() error {
	return apperr.InvalidInput("Missing required fields")
}
