package routes

import (
	"github.com/gofiber/fiber/v2"

	registrationController "sspl_backend/internals/features/registration/controller"
	"sspl_backend/internals/middlewares"
)

// RegistrationRoutes mounts the public registration endpoints.
func RegistrationRoutes(api fiber.Router, ctrl *registrationController.RegistrationController) {
	api.Post("/register", middlewares.RegisterRateLimiter(), ctrl.Register)
	api.Get("/register/status", ctrl.Status)
}
