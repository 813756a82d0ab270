package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	applog "grocerly/internal/log"
	"grocerly/internal/services"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(Envelope{
		Status:  status,
		Success: status < fiber.StatusBadRequest,
		Message: msg,
		Data:    data,
	})
}

func statusOf(k services.Kind) int {
	switch k {
	case services.KindValidation, services.KindState:
		return fiber.StatusBadRequest
	case services.KindAuth:
		return fiber.StatusUnauthorized
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail converts a service error to the envelope. Internal details stay in the log.
func fail(c *fiber.Ctx, action string, err error) error {
	status := statusOf(services.KindOf(err))
	msg := "Internal server error"
	var se *services.Error
	if status != fiber.StatusInternalServerError && errors.As(err, &se) {
		msg = se.Msg
	}
	c.Status(status)
	switch status {
	case fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
	case fiber.StatusUnauthorized:
		applog.Security(c, action, map[string]any{"reason": msg})
	default:
		applog.Info(c, action, map[string]any{"reason": msg})
	}
	return respond(c, status, msg, nil)
}

// ErrorHandler answers anything a handler returned unhandled.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		applog.Info(c, "request.rejected", map[string]any{"code": fe.Code, "reason": fe.Message})
		return respond(c, fe.Code, utils.StatusMessage(fe.Code), nil)
	}
	applog.Error(c, "server.error", err, nil)
	return respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
}
