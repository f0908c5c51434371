package formationController

import (
	"code212/middleware"
	"code212/services/catalog"
	formationValidator "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

// AdminListFormations lists formations including drafts
func (ctl *Controller) AdminListFormations(c *fiber.Ctx) error {
	q, _ := c.Locals("validatedList").(*formationValidator.ListQuery)
	if q == nil {
		q = &formationValidator.ListQuery{}
	}
	return ctl.listFormations(c, catalog.ListFilter{
		Page:     q.Page,
		Limit:    q.Limit,
		Category: q.Category,
		Level:    q.Level,
		Search:   q.Search,
	})
}

func (ctl *Controller) AdminGetFormation(c *fiber.Ctx) error {
	f, err := ctl.Catalog.GetFormation(c.UserContext(), c.Locals("id").(uint), false)
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to fetch formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation fetched successfully!", f)
}

func (ctl *Controller) CreateFormation(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedFormation").(*formationValidator.FormationRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	f, err := ctl.Catalog.CreateFormation(c.UserContext(), catalog.FormationInput{
		Title:       reqData.Title,
		Description: reqData.Description,
		Level:       reqData.Level,
		Category:    reqData.Category,
		Duration:    reqData.Duration,
		Objectives:  reqData.Objectives,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to create formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Formation created successfully!", f)
}

func (ctl *Controller) UpdateFormation(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedFormationUpdate").(*formationValidator.FormationUpdateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	f, err := ctl.Catalog.UpdateFormation(c.UserContext(), c.Locals("id").(uint), catalog.FormationPatch{
		Title:       reqData.Title,
		Description: reqData.Description,
		Level:       reqData.Level,
		Category:    reqData.Category,
		Duration:    reqData.Duration,
		Objectives:  reqData.Objectives,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to update formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation updated successfully!", f)
}

func (ctl *Controller) PublishFormation(c *fiber.Ctx) error {
	f, err := ctl.Catalog.PublishFormation(c.UserContext(), c.Locals("id").(uint))
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to publish formation!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Formation published successfully!", f)
}
