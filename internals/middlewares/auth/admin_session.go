// Admin sessions are a signed JWT held in an HttpOnly cookie. There is a
// single admin identity; the token carries only a role claim and an expiry.
package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const SessionCookieName = "admin_session"

const roleAdmin = "admin"

// IssueSessionToken mints the cookie value set by a successful login.
func IssueSessionToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("missing JWT secret")
	}
	claims := jwt.MapClaims{
		"role": roleAdmin,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifySessionToken checks signature, expiry, and the admin role claim.
func VerifySessionToken(secret, tokenString string) error {
	if secret == "" {
		return errors.New("missing JWT secret")
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}); err != nil {
		return err
	}
	if role, _ := claims["role"].(string); role != roleAdmin {
		return errors.New("not an admin session")
	}
	return nil
}

// AdminOnly gates the /api/admin group on a valid session cookie.
func AdminOnly(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(SessionCookieName)
		if cookie == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		if err := VerifySessionToken(secret, cookie); err != nil {
			log.Printf("[AUTH] session rejected: %v", err)
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		return c.Next()
	}
}
