package formationRoutes

import (
	controllers "code212/controllers/formation"
	"code212/middleware"
	validators "code212/validators/formation"

	"github.com/gofiber/fiber/v2"
)

// SetupFormationRoutes sets up the learner facing formation routes
func SetupFormationRoutes(app *fiber.App, ctl *controllers.Controller) {
	formationGroup := app.Group("/formations", middleware.JWTMiddleware)

	formationGroup.Get("/", validators.ListFormations(), ctl.ListFormations)
	formationGroup.Get("/:id", validators.FormationID(), ctl.GetFormation)
	formationGroup.Post("/:id/register", validators.FormationID(), ctl.Register)

	moduleGroup := app.Group("/modules", middleware.JWTMiddleware)
	moduleGroup.Post("/:id/toggle-completion", validators.ModuleID(), ctl.ToggleCompletion)
}
