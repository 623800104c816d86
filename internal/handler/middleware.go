package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"word-garden/internal/apperr"
)

// HeaderRequestID carries the request ID in and out.
const HeaderRequestID = "X-Request-ID"

const localRequestID = "request_id"

// RequestID reuses the caller's X-Request-ID or assigns a fresh one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// Let the error handler set the status before it is logged.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error().Err(chainErr)
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")

		return nil
	}
}

// ErrorHandler renders every error as {"error": message, "kind": kind}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	kind := apperr.KindInternal
	message := apperr.MessageOf(err)

	var fe *fiber.Error
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		kind = ae.Kind
		status = kind.HTTPStatus()
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
		if status == fiber.StatusNotFound {
			kind = apperr.KindNotFound
		} else if status < fiber.StatusInternalServerError {
			kind = apperr.KindInvalidInput
		}
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("path", c.Path()).
			Msg("Request failed")
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"kind":  kind,
	})
}
