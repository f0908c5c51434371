package formationController

import (
	"code212/middleware"
	"code212/services/certification"
	formationValidator "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

// ListRegistrations lists registrations for administrators
func (ctl *Controller) ListRegistrations(c *fiber.Ctx) error {
	q, _ := c.Locals("validatedList").(*formationValidator.RegistrationQuery)
	if q == nil {
		q = &formationValidator.RegistrationQuery{}
	}

	regs, total, err := ctl.Certification.ListRegistrations(c.UserContext(), certification.RegistrationFilter{
		FormationID: q.FormationID,
		Status:      q.Status,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch registrations!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Registrations fetched successfully!", fiber.Map{
		"registrations": regs,
		"pagination": fiber.Map{
			"total": total,
			"page":  max(q.Page, 1),
			"limit": limitOrDefault(q.Limit),
		},
	})
}

// ApproveRegistration approves a pending registration
func (ctl *Controller) ApproveRegistration(c *fiber.Ctx) error {
	reg, err := ctl.Certification.Approve(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to approve registration!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Registration approved successfully!", reg)
}

func limitOrDefault(limit int) int {
	if limit < 1 {
		return 10
	}
	return limit
}
