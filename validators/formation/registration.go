package formationValidator

import (
	"code212/middleware"
	"code212/validators"

	"github.com/gofiber/fiber/v2"
)

type RegistrationQuery struct {
	FormationID uint   `query:"formation_id"`
	Status      string `query:"status" validate:"omitempty,oneof=pending approved"`
	Page        int    `query:"page" validate:"gte=0"`
	Limit       int    `query:"limit" validate:"gte=0,lte=100"`
}

// ListRegistrations validates the admin registration listing filters
func ListRegistrations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegistrationQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// RegistrationID validates the :id route parameter of registration routes
func RegistrationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid registration id!"})
		}
		return c.Next()
	}
}
