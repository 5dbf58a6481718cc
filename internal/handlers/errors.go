package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the Fiber error handler. Details of 5xx errors are logged
// and sent to Sentry but never returned to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// respondError maps service errors to status codes. Anything unrecognised
// goes to ErrorHandler as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *services.ValidationError
		conflict   *services.ConflictError
		authErr    *services.AuthenticationError
		locked     *services.AccountLockedError
	)
	switch {
	case errors.As(err, &validation):
		return errorJSON(c, fiber.StatusBadRequest, validation.Message)
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: conflict.Message, Code: conflict.Code,
		})
	case errors.As(err, &authErr):
		return errorJSON(c, fiber.StatusUnauthorized, authErr.Message)
	case errors.As(err, &locked):
		return errorJSON(c, fiber.StatusTooManyRequests, locked.Message)
	default:
		return err
	}
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}
