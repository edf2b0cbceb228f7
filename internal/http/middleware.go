package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"passageai/internal/metrics"
)

// requestLogger assigns a request ID, records request metrics and writes
// one structured log line per request.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		c.Locals("logger", logger)
		c.Set("X-Request-Id", reqID)

		if err := c.Next(); err != nil {
			// Render the error here so the logged status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()
		// Request strings alias fasthttp buffers that are reused after this
		// handler returns, so metric labels must own their memory.
		method := utils.CopyString(c.Method())
		path := c.Path()

		metrics.RecordRequest(method, routeLabel(c), status, latency.Milliseconds())

		attrs := []any{
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
		}
		if provVal := c.Locals("llm_provider"); provVal != nil {
			attrs = append(attrs, "llm_provider", provVal)
		}
		if modelVal := c.Locals("llm_model"); modelVal != nil {
			attrs = append(attrs, "llm_model", modelVal)
		}
		logger.Info("request", attrs...)

		return nil
	}
}

// unmatchedRoute labels requests that no registered route handled.
const unmatchedRoute = "unmatched"

// routeLabel returns the registered pattern of the route that handled the
// request. Middleware routes (Method "USE") mean nothing matched, and those
// requests share one label so unknown paths cannot add series.
func routeLabel(c *fiber.Ctx) string {
	r := c.Route()
	if r == nil || r.Method == "USE" {
		return unmatchedRoute
	}
	return r.Path
}
