package handler

import (
	"errors"

	"github.com/fadilmartias/cv-matcher/internal/usecase"
	"github.com/fadilmartias/cv-matcher/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// writeError maps use case errors to HTTP status codes. Unexpected errors get
// the fallback message; their text only appears in non-production dev fields.
func writeError(c *fiber.Ctx, err error, fallback string) error {
	code := fiber.StatusInternalServerError
	message := fallback
	switch {
	case errors.Is(err, usecase.ErrJobNotFound),
		errors.Is(err, usecase.ErrCandidateNotFound),
		errors.Is(err, usecase.ErrScoreNotFound),
		errors.Is(err, usecase.ErrRunNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, usecase.ErrJobNotAnalyzable):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrProviderUnavailable), errors.Is(err, usecase.ErrShuttingDown):
		code = fiber.StatusServiceUnavailable
	case errors.Is(err, usecase.ErrInvalidInput):
		code = fiber.StatusBadRequest
	}
	if code != fiber.StatusInternalServerError {
		message = rootMessage(err)
		return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message})
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
}

func rootMessage(err error) string {
	for _, sentinel := range []error{
		usecase.ErrJobNotFound,
		usecase.ErrCandidateNotFound,
		usecase.ErrScoreNotFound,
		usecase.ErrRunNotFound,
		usecase.ErrJobNotAnalyzable,
		usecase.ErrProviderUnavailable,
		usecase.ErrShuttingDown,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ErrorHandler renders errors that reach fiber in the standard envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if e.Message != "" {
			message = e.Message
		}
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{Code: code, Message: message}, err)
}

func badBody(c *fiber.Ctx, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: "invalid request body",
	}, err)
}
