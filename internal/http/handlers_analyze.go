package http

import (
	"github.com/gofiber/fiber/v2"

	"passageai/internal/services"
)

// analyzeHandler implements POST /analyze:
// - validates the passage before any model call
// - returns the extracted object once it matches the analysis schema
// - returns 422 with validationErrors and rawOutput otherwise
func analyzeHandler(svc services.AnalyzeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqBody PassageRequest
		if err := parseBody(c, &reqBody); err != nil {
			return badJSON(c)
		}

		obj, err := svc.Analyze(c.Context(), services.PassageInput{
			Passage: reqBody.Passage,
			Format:  reqBody.PassageFormat,
		})
		if err != nil {
			return writeError(c, "analyze", err)
		}
		return writeJSONObject(c, obj.Raw)
	}
}
