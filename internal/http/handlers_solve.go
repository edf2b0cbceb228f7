package http

import (
	"github.com/gofiber/fiber/v2"

	"passageai/internal/services"
)

// solveHandler implements POST /solve. Both passage and questions are
// required; the extracted object is returned without schema validation.
func solveHandler(svc services.SolveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqBody SolveRequest
		if err := parseBody(c, &reqBody); err != nil {
			return badJSON(c)
		}

		obj, err := svc.Solve(c.Context(), services.SolveInput{
			PassageInput: services.PassageInput{
				Passage: reqBody.Passage,
				Format:  reqBody.PassageFormat,
			},
			Questions: reqBody.Questions,
		})
		if err != nil {
			return writeError(c, "solve", err)
		}
		return writeJSONObject(c, obj.Raw)
	}
}
