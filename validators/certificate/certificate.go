package certificateValidator

import (
	"code212/middleware"
	"code212/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type ListQuery struct {
	FormationID uint   `query:"formation_id"`
	Status      string `query:"status" validate:"omitempty,oneof=generated pending"`
	IssuedOn    string `query:"issued_on" validate:"omitempty,datetime=2006-01-02"`
	Page        int    `query:"page" validate:"gte=0"`
	Limit       int    `query:"limit" validate:"gte=0,lte=100"`
}

type BulkGenerateRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,max=200,dive,gt=0"`
}

// ListCertificates validates the admin certificate listing filters
func ListCertificates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Status = strings.ToLower(strings.TrimSpace(reqData.Status))

		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// CertificateID validates the :id route parameter
func CertificateID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParamID(c, "id")
		if !ok {
			return middleware.ValidationErrorResponse(c, map[string]string{"id": "Invalid certificate id!"})
		}
		c.Locals("id", id)
		return c.Next()
	}
}

// BulkGenerate validates the list of certificate ids to generate
func BulkGenerate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BulkGenerateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedBulk", reqData)
		return c.Next()
	}
}

// VerificationCode rejects codes that cannot have been issued
func VerificationCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToLower(strings.TrimSpace(c.Params("code")))
		if validators.Var(code, "min=8,max=64,hexadecimal") != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		c.Locals("verificationCode", code)
		return c.Next()
	}
}
