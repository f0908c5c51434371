package formationValidator

import (
	"code212/middleware"
	"code212/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ============ Formation Validators ============

type FormationRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Level       string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category    string   `json:"category" validate:"max=80"`
	Duration    int      `json:"duration" validate:"gte=0"`
	Objectives  []string `json:"objectives" validate:"max=20,dive,required,max=300"`
}

// FormationUpdateRequest leaves nil fields untouched.
type FormationUpdateRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Level       *string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category    *string   `json:"category" validate:"omitempty,max=80"`
	Duration    *int      `json:"duration" validate:"omitempty,gte=0"`
	Objectives  *[]string `json:"objectives" validate:"omitempty,max=20,dive,required,max=300"`
}

type ListQuery struct {
	Page     int    `query:"page" validate:"gte=0"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Category string `query:"category" validate:"max=80"`
	Level    string `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Search   string `query:"search" validate:"max=100"`
}

// CreateFormation validates admin formation creation request
func CreateFormation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(FormationRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Level = strings.ToLower(strings.TrimSpace(reqData.Level))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedFormation", reqData)
		return c.Next()
	}
}

// UpdateFormation validates admin formation update request
func UpdateFormation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid formation id!"})
		}
		reqData := new(FormationUpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if reqData.Level != nil {
			level := strings.ToLower(strings.TrimSpace(*reqData.Level))
			reqData.Level = &level
		}

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedFormationUpdate", reqData)
		return c.Next()
	}
}

// ListFormations validates pagination and filters
func ListFormations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
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

// FormationID validates the :id route parameter
func FormationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !storeID(c, "id") {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid formation id!"})
		}
		return c.Next()
	}
}

func storeID(c *fiber.Ctx, param string) bool {
	id, ok := validators.ParamID(c, param)
	if ok {
		c.Locals("id", id)
	}
	return ok
}
