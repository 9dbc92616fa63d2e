package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/urlinsta/urlinsta/internal/pkg/statistics"
)

// HandleGetLimits exposes the outbound rate-limiter state plus the connected
// account count so operators can see how much Graph API headroom a collection
// run has left.
func HandleGetLimits(c *fiber.Ctx) error {
	accounts, err := statistics.TotalAccounts()
	if err != nil {
		accounts = -1
	}

	return c.JSON(fiber.Map{
		"remaining":        graphLimiter.Remaining(),
		"reset_in_seconds": int(graphLimiter.ResetIn().Seconds()),
		"accounts":         accounts,
	})
}
