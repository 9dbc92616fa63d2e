package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/urlinsta/urlinsta/internal/pkg/env"
)

// CronSecretMiddleware authenticates scheduler requests carrying the shared
// cron secret as a bearer token. Endpoints behind it trigger background work,
// so an unset secret rejects everything instead of letting everything in.
func CronSecretMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("CRON_SECRET", "")
		if secret == "" {
			log.Print("cron middleware: CRON_SECRET not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Cron secret not configured"})
		}

		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing cron secret"})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid cron secret"})
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
