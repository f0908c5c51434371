// Package routers assembles the HTTP application.
package routers

import (
	"code212/config"
	authController "code212/controllers/auth"
	certificateController "code212/controllers/certificate"
	formationController "code212/controllers/formation"
	userController "code212/controllers/user"
	"code212/middleware"
	authRoutes "code212/routers/authRoutes"
	certificateRoutes "code212/routers/certificateRoutes"
	formationRoutes "code212/routers/formationRoutes"
	userRoutes "code212/routers/userRoutes"
	"code212/services/catalog"
	"code212/services/certification"
	"code212/utils/logger"
	"code212/utils/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Log      *logger.Logger
	Renderer certification.Renderer
	Storage  storage.Storage
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

// Services are exposed so background jobs can share them with the handlers.
type Services struct {
	Catalog       *catalog.Service
	Certification *certification.Service
}

func NewServices(d Deps) Services {
	return Services{
		Catalog: catalog.New(d.DB, d.Log),
		Certification: certification.New(d.DB, d.Log, certification.Options{
			Renderer:      d.Renderer,
			Storage:       d.Storage,
			PublicBaseURL: d.Config.PublicBaseURL,
		}),
	}
}

// SetupApp wires middleware, services and every route group.
func SetupApp(d Deps, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "code212",
		ErrorHandler: errorHandler(d.Log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if d.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	// Generated certificates written by the local storage driver
	if local, ok := d.Storage.(*storage.Local); ok {
		app.Static("/files", local.Root())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	authRoutes.SetupAuthRoutes(app, authController.NewController(d.DB, d.Log))
	userRoutes.SetupUserRoutes(app, userController.NewController(d.DB, d.Log))

	formations := formationController.NewController(svc.Catalog, svc.Certification, d.Log)
	formationRoutes.SetupFormationRoutes(app, formations)
	formationRoutes.SetupAdminFormationRoutes(app, formations)

	certificateRoutes.SetupCertificateRoutes(app, certificateController.NewController(svc.Certification, d.Log))

	return app
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code == fiber.StatusInternalServerError {
			log.Error("unhandled error", "path", c.Path(), "error", err)
			return middleware.JsonResponse(c, code, false, "Internal server error!", nil)
		}
		return middleware.JsonResponse(c, code, false, err.Error(), nil)
	}
}
