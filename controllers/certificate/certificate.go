package certificateController

import (
	"code212/middleware"
	"code212/services/certification"
	"code212/utils/logger"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Certification *certification.Service
	Log           *logger.Logger
}

func NewController(svc *certification.Service, log *logger.Logger) *Controller {
	return &Controller{Certification: svc, Log: log.With("controller", "certificate")}
}

// GetUserCertificates lists the learner's certificates with progress
func (ctl *Controller) GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certs, err := ctl.Certification.UserCertificates(c.UserContext(), userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch certificates!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

// Verify is the public lookup by verification code
func (ctl *Controller) Verify(c *fiber.Ctx) error {
	code, _ := c.Locals("verificationCode").(string)

	v, err := ctl.Certification.Verify(c.UserContext(), code)
	if err != nil {
		if middleware.StatusFor(err) == fiber.StatusNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to verify certificate!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", v)
}
