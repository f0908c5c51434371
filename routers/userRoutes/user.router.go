package userRoutes

import (
	userController "code212/controllers/user"
	"code212/middleware"
	"code212/models"
	userValidator "code212/validators/user"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, ctl *userController.Controller) {
	userGroup := app.Group("/user")
	userGroup.Put("/profile", middleware.JWTMiddleware, userValidator.UpdateProfile(), ctl.UpdateProfile)

	manage := middleware.CheckPermissionMiddleware(models.PermissionManageUsers)
	adminGroup := app.Group("/admin/users", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin))
	adminGroup.Get("/", userValidator.List(), manage, ctl.UserList)
	adminGroup.Get("/:id/permissions", userValidator.UserID(), manage, ctl.PermissionsByUserID)
	adminGroup.Patch("/:id/unblock", userValidator.UserID(), manage, ctl.Unblock)
}
