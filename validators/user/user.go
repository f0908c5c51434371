package userValidator

import (
	"code212/middleware"
	"code212/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type ListQuery struct {
	Page    int    `query:"page" validate:"gte=0"`
	Limit   int    `query:"limit" validate:"gte=0,lte=100"`
	Role    string `query:"role" validate:"omitempty,oneof=STUDENT ADMIN"`
	Search  string `query:"search" validate:"max=100"`
	Blocked *bool  `query:"blocked"`
}

type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=120"`
	Institution *string `json:"institution" validate:"omitempty,max=160"`
}

// List validator middleware
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))
		reqData.Search = strings.TrimSpace(reqData.Search)

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validateUserList", reqData)
		return c.Next()
	}
}

// UserID validates the :id route parameter
func UserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParamID(c, "id")
		if !ok {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid user id!"})
		}
		c.Locals("id", id)
		return c.Next()
	}
}

func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProfileRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.Name != nil {
			name := strings.TrimSpace(*reqData.Name)
			reqData.Name = &name
		}
		if reqData.Name == nil && reqData.Institution == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"request": "Nothing to update!"})
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedProfile", reqData)
		return c.Next()
	}
}
