package formationController

import (
	"code212/middleware"
	"code212/services/catalog"
	"code212/services/certification"
	"code212/utils/logger"
	formationValidator "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

// Controller serves formation, module and registration routes.
type Controller struct {
	Catalog       *catalog.Service
	Certification *certification.Service
	Log           *logger.Logger
}

func NewController(cat *catalog.Service, cert *certification.Service, log *logger.Logger) *Controller {
	return &Controller{Catalog: cat, Certification: cert, Log: log.With("controller", "formation")}
}

// ListFormations lists published formations
func (ctl *Controller) ListFormations(c *fiber.Ctx) error {
	q, _ := c.Locals("validatedList").(*formationValidator.ListQuery)
	if q == nil {
		q = &formationValidator.ListQuery{}
	}
	filter := catalog.ListFilter{
		Page:          q.Page,
		Limit:         q.Limit,
		Category:      q.Category,
		Level:         q.Level,
		Search:        q.Search,
		PublishedOnly: true,
	}
	return ctl.listFormations(c, filter)
}

func (ctl *Controller) listFormations(c *fiber.Ctx, filter catalog.ListFilter) error {
	formations, total, err := ctl.Catalog.ListFormations(c.UserContext(), filter)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch formations!")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formations fetched successfully!", fiber.Map{
		"formations": formations,
		"pagination": fiber.Map{
			"total": total,
			"page":  max(filter.Page, 1),
			"limit": limitOrDefault(filter.Limit),
		},
	})
}

// GetFormation returns a published formation with the learner's progress
func (ctl *Controller) GetFormation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("id").(uint)

	f, err := ctl.Catalog.GetFormation(c.UserContext(), id, true)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch formation!")
	}
	overview, err := ctl.Certification.Overview(c.UserContext(), userID, f)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation fetched successfully!", overview)
}

// Register enrolls the learner, pending approval
func (ctl *Controller) Register(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	id := c.Locals("id").(uint)

	reg, err := ctl.Certification.Register(c.UserContext(), userID, id)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to register to formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Registration submitted, awaiting approval.", reg)
}

// ToggleCompletion marks a module done or not done for the learner
func (ctl *Controller) ToggleCompletion(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	moduleID := c.Locals("id").(uint)
	ctx := c.UserContext()

	completed, err := ctl.Certification.ToggleCompletion(ctx, userID, moduleID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to update module completion!")
	}

	mod, err := ctl.Catalog.GetModule(ctx, moduleID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to update module completion!")
	}
	eligibility, err := ctl.Certification.Eligibility(ctx, userID, mod.FormationID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to update module completion!")
	}

	message := "Module marked as not completed."
	if completed {
		message = "Module marked as completed."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"completed":    completed,
		"progress":     eligibility.Progress,
		"can_generate": eligibility.CanGenerate,
	})
}
