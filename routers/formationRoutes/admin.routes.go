package formationRoutes

import (
	controllers "code212/controllers/formation"
	"code212/middleware"
	"code212/models"
	validators "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminFormationRoutes sets up formation, module and registration management
func SetupAdminFormationRoutes(app *fiber.App, ctl *controllers.Controller) {
	adminGroup := app.Group("/admin",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
	)
	manage := middleware.CheckPermissionMiddleware(models.PermissionManageFormations)

	// Formation CRUD
	adminGroup.Get("/formations", manage, validators.ListFormations(), ctl.AdminListFormations)
	adminGroup.Post("/formations", manage, validators.CreateFormation(), ctl.CreateFormation)
	adminGroup.Get("/formations/:id", manage, validators.FormationID(), ctl.AdminGetFormation)
	adminGroup.Put("/formations/:id", manage, validators.UpdateFormation(), ctl.UpdateFormation)
	adminGroup.Post("/formations/:id/publish", manage, validators.FormationID(), ctl.PublishFormation)

	// Module Management
	adminGroup.Post("/formations/:id/modules", manage, validators.CreateModule(), ctl.CreateModule)
	adminGroup.Put("/modules/:id", manage, validators.UpdateModule(), ctl.UpdateModule)
	adminGroup.Delete("/modules/:id", manage, validators.ModuleID(), ctl.DeleteModule)

	// Registrations
	adminGroup.Get("/registrations", manage, validators.ListRegistrations(), ctl.ListRegistrations)
	adminGroup.Patch("/registrations/:id/approve", manage, validators.RegistrationID(), ctl.ApproveRegistration)
}
