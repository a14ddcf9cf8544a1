package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/api/dto"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}
