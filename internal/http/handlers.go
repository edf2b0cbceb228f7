package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"passageai/internal/extract"
	"passageai/internal/services"
)

// parseBody decodes a JSON body. An empty body decodes to the zero value so
// that required-field checks report what is missing.
func parseBody(c *fiber.Ctx, out any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Success: false,
		Code:    "BAD_REQUEST_INVALID_JSON",
		Error:   "Bad request, malformed JSON",
	})
}

// writeJSONObject sends the model's JSON object exactly as it was extracted.
func writeJSONObject(c *fiber.Ctx, raw json.RawMessage) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(raw)
}

// writeError maps pipeline errors onto HTTP responses.
func writeError(c *fiber.Ctx, route string, err error) error {
	var inputErr *services.InputError
	var schemaErr *services.SchemaError

	switch {
	case errors.As(err, &inputErr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    inputErr.Code,
			Error:   inputErr.Message,
		})
	case errors.Is(err, extract.ErrNoJSON):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "NO_JSON_FOUND",
			Error:   "No JSON found in model output",
		})
	case errors.As(err, &schemaErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Success:          false,
			Code:             "SCHEMA_VALIDATION_FAILED",
			Error:            "Model output failed schema validation",
			ValidationErrors: schemaErr.Result.Errors,
			RawOutput:        schemaErr.Output.Raw,
		})
	default:
		logFromCtx(c).Error("pipeline_failed",
			"route", route,
			"request_id", c.Locals("request_id"),
			"error", err.Error(),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "INTERNAL_ERROR",
			Error:   err.Error(),
		})
	}
}

func logFromCtx(c *fiber.Ctx) *slog.Logger {
	if lg, ok := c.Locals("logger").(*slog.Logger); ok {
		return lg
	}
	return slog.Default()
}
