package controller

import (
	"crypto/subtle"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"sspl_backend/internals/configs"
	"sspl_backend/internals/features/admin/dto"
	helper "sspl_backend/internals/helpers"
	"sspl_backend/internals/middlewares/auth"
)

// AuthController issues and clears the admin session cookie.
type AuthController struct {
	cfg *configs.AppConfig
}

func NewAuthController(cfg *configs.AppConfig) *AuthController {
	return &AuthController{cfg: cfg}
}

// Login handles POST /api/login.
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Invalid request body. Expected JSON payload.")
	}

	if !ctrl.credentialsAreValid(body.Username, body.Password) {
		return helper.Error(c, fiber.StatusUnauthorized, "Invalid credentials.")
	}

	token, err := auth.IssueSessionToken(ctrl.cfg.JWTSecret, ctrl.cfg.SessionTTL)
	if err != nil {
		log.Printf("[AUTH] could not issue session token: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "Unable to start an admin session.")
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ctrl.cfg.SessionTTL / time.Second),
		HTTPOnly: true,
		Secure:   configs.GetEnv("APP_ENV", "development") == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return helper.Success(c, "Logged in.", nil)
}

// Logout handles POST /api/logout.
func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return helper.Success(c, "Logged out.", nil)
}

// credentialsAreValid prefers the bcrypt hash when configured and falls back
// to a constant-time plain comparison otherwise.
func (ctrl *AuthController) credentialsAreValid(username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	if strings.TrimSpace(username) != strings.TrimSpace(ctrl.cfg.AdminUsername) {
		return false
	}
	if ctrl.cfg.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(ctrl.cfg.AdminPasswordHash), []byte(password)) == nil
	}
	if ctrl.cfg.AdminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(ctrl.cfg.AdminPassword)) == 1
}
