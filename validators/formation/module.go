package formationValidator

import (
	"code212/middleware"
	"code212/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ============ Module Validators ============

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Order       *int   `json:"order" validate:"omitempty,gte=0"`
	Duration    int    `json:"duration" validate:"gte=0"`
}

type ModuleUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

// CreateModule validates module creation under /admin/formations/:id/modules
func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid formation id!"})
		}
		reqData := new(ModuleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

// UpdateModule validates module update request
func UpdateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid module id!"})
		}
		reqData := new(ModuleUpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedModuleUpdate", reqData)
		return c.Next()
	}
}

// ModuleID validates the :id route parameter of module routes
func ModuleID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid module id!"})
		}
		return c.Next()
	}
}
