package formationController

import (
	"code212/middleware"
	"code212/services/catalog"
	formationValidator "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

func (ctl *Controller) CreateModule(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedModule").(*formationValidator.ModuleRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	mod, err := ctl.Catalog.CreateModule(c.UserContext(), c.Locals("id").(uint), catalog.ModuleInput{
		Title:       reqData.Title,
		Description: reqData.Description,
		Order:       reqData.Order,
		Duration:    reqData.Duration,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to create module!")
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", mod)
}

func (ctl *Controller) UpdateModule(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedModuleUpdate").(*formationValidator.ModuleUpdateRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	mod, err := ctl.Catalog.UpdateModule(c.UserContext(), c.Locals("id").(uint), catalog.ModulePatch{
		Title:       reqData.Title,
		Description: reqData.Description,
		Order:       reqData.Order,
		Duration:    reqData.Duration,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to update module!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", mod)
}

func (ctl *Controller) DeleteModule(c *fiber.Ctx) error {
	if err := ctl.Catalog.DeleteModule(c.UserContext(), c.Locals("id").(uint)); err != nil {
		return middleware.ServiceErrorResponse(c, ctl.Log, err, "Failed to delete module!")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}
