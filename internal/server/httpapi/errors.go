package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// errorStatus maps a service error to an HTTP status and a client-safe
// message. Store failures and anything unrecognised become a bare 500 so
// internals never reach the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrInvalidCredential),
		errors.Is(err, common.ErrTooManyImages):
		return fiber.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, common.ErrExpiredToken),
		errors.Is(err, common.ErrInvalidSignature):
		return fiber.StatusUnauthorized, sentinelMessage(err)
	case errors.Is(err, common.ErrForbidden):
		return fiber.StatusForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, common.ErrNotFound.Error()
	case errors.Is(err, common.ErrConfiguration):
		return fiber.StatusInternalServerError, common.ErrConfiguration.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// sentinelMessage returns the message of the first known sentinel wrapped
// in err, dropping whatever context was added around it.
func sentinelMessage(err error) string {
	for _, s := range []error{
		common.ErrValidation, common.ErrConflict, common.ErrInvalidCredential, common.ErrTooManyImages,
		common.ErrExpiredToken, common.ErrInvalidSignature,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status, msg := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Error(c.UserContext(), "request failed",
			append([]any{"method", c.Method(), "path", c.Path()}, logging.ErrorAttrs(err)...)...)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// errorHandler handles errors no route handler turned into a response,
// e.g. fiber's own 404 and 405.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
