package http

import (
	"github.com/gofiber/fiber/v2"

	"passageai/internal/services"
)

// mindmapHandler implements POST /mindmap. The reply is returned with code
// fences removed and is never parsed.
func mindmapHandler(svc services.MindmapService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqBody PassageRequest
		if err := parseBody(c, &reqBody); err != nil {
			return badJSON(c)
		}

		mm, err := svc.Mindmap(c.Context(), services.PassageInput{
			Passage: reqBody.Passage,
			Format:  reqBody.PassageFormat,
		})
		if err != nil {
			return writeError(c, "mindmap", err)
		}

		if mm.HTML {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		} else {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		}
		return c.Status(fiber.StatusOK).SendString(mm.Body)
	}
}
