package certificateRoutes

import (
	controllers "code212/controllers/certificate"
	"code212/middleware"
	"code212/models"
	validators "code212/validators/certificate"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificateRoutes sets up public verification, learner and admin certificate routes
func SetupCertificateRoutes(app *fiber.App, ctl *controllers.Controller) {
	app.Get("/certificates/verify/:code", validators.VerificationCode(), ctl.Verify)

	app.Get("/user/certificates", middleware.JWTMiddleware, ctl.GetUserCertificates)

	adminGroup := app.Group("/admin/certificates",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		middleware.CheckPermissionMiddleware(models.PermissionManageCertificates),
	)
	adminGroup.Get("/", validators.ListCertificates(), ctl.ListCertificates)
	adminGroup.Post("/bulk-generate", validators.BulkGenerate(), ctl.BulkGenerate)
	adminGroup.Post("/:id/generate", validators.CertificateID(), ctl.GenerateCertificate)
}
