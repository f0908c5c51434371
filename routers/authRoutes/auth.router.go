package authRoutes

import (
	authControllers "code212/controllers/auth"
	"code212/middleware"
	authValidators "code212/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, ctl *authControllers.Controller) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), ctl.Signup)
	authGroup.Post("/login", authValidators.Login(), ctl.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, ctl.Profile)
	authGroup.Get("/login-history", middleware.JWTMiddleware, authValidators.LoginHistory(), ctl.LoginHistoryList)
}
