package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sspl_backend/internals/configs"
	adminController "sspl_backend/internals/features/admin/controller"
	adminRoutes "sspl_backend/internals/features/admin/routes"
	registrationController "sspl_backend/internals/features/registration/controller"
	registrationRoutes "sspl_backend/internals/features/registration/routes"
	"sspl_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps carries everything the route tree needs; main builds it once.
type Deps struct {
	Cfg          *configs.AppConfig
	DB           *gorm.DB // nil when the file backend is active
	Registration *registrationController.RegistrationController
	Admin        *adminController.AdminController
	Auth         *adminController.AuthController
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()

	BaseRoutes(app, deps.DB)

	api := app.Group("/api")

	log.Println("[INFO] Mounting registration routes...")
	registrationRoutes.RegistrationRoutes(api, deps.Registration)

	log.Println("[INFO] Mounting auth routes...")
	adminRoutes.AuthRoutes(api, deps.Auth)

	log.Println("[INFO] Mounting admin routes...")
	admin := api.Group("/admin", auth.AdminOnly(deps.Cfg.JWTSecret))
	adminRoutes.AdminRoutes(admin, deps.Admin)
}
