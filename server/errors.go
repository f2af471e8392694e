package server

import (
	"errors"

	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// errorHandler maps errors returned by handlers onto ErrorResponse bodies.
func errorHandler(c fiber.Ctx, err error) error {
	status, detail := classify(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("code", detail.Code).Msg("Request failed")
	}
	return c.Status(status).JSON(ErrorResponse{Error: detail})
}

func classify(err error) (int, ErrorDetail) {
	var verr *filter.ValidationError
	var serr *store.Error
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, ErrorDetail{
			Code:    "INVALID_PARAMETER",
			Message: verr.Error(),
			Details: fiber.Map{"field": verr.Field},
		}
	case errors.Is(err, qa.ErrInvalidRating), errors.Is(err, qa.ErrInvalidTag):
		return fiber.StatusBadRequest, ErrorDetail{
			Code:    "INVALID_PARAMETER",
			Message: err.Error(),
		}
	case store.IsTimeout(err):
		return fiber.StatusGatewayTimeout, ErrorDetail{
			Code:      "QUERY_TIMEOUT",
			Message:   "The query took too long, try narrower filters or retry",
			Retryable: true,
		}
	case errors.As(err, &serr):
		return fiber.StatusServiceUnavailable, ErrorDetail{
			Code:      "STORE_UNAVAILABLE",
			Message:   "The data store is unavailable, retry shortly",
			Retryable: serr.Retryable(),
		}
	case errors.As(err, &ferr):
		return ferr.Code, ErrorDetail{
			Code:    fiberCode(ferr.Code),
			Message: ferr.Message,
		}
	}

	return fiber.StatusInternalServerError, ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	}
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "INVALID_PARAMETER"
	}
	return "INTERNAL_ERROR"
}

func invalidParameter(field, message string) error {
	return &filter.ValidationError{Field: field, Message: message}
}

func notFound(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    "NOT_FOUND",
			Message: message,
		},
	})
}
