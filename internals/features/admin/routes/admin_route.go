package routes

import (
	"github.com/gofiber/fiber/v2"

	adminController "sspl_backend/internals/features/admin/controller"
	"sspl_backend/internals/middlewares"
)

// AuthRoutes mounts the session endpoints outside the admin group so login is
// reachable without a cookie.
func AuthRoutes(api fiber.Router, ctrl *adminController.AuthController) {
	api.Post("/login", middlewares.LoginRateLimiter(), ctrl.Login)
	api.Post("/logout", ctrl.Logout)
}

// AdminRoutes mounts the dashboard endpoints; the caller wraps the group in
// the session middleware.
func AdminRoutes(admin fiber.Router, ctrl *adminController.AdminController) {
	admin.Get("/submissions", ctrl.Submissions)
	admin.Post("/approve", ctrl.Approve)
	admin.Post("/delete", ctrl.Delete)
	admin.Post("/payment-validation", ctrl.PaymentValidation)
	admin.Get("/signed-url", ctrl.SignedURL)
	admin.Get("/export", ctrl.Export)
}
