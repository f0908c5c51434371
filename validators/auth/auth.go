package authValidator

import (
	"code212/middleware"
	"code212/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type SignupRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Institution string `json:"institution" validate:"max=160"`
	Role        string `json:"role" validate:"omitempty,oneof=STUDENT ADMIN"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type HistoryQuery struct {
	Page  int `query:"page" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SignupRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// LoginHistory validates pagination for the login history list
func LoginHistory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(HistoryQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedLoginHistory", reqData)
		return c.Next()
	}
}
