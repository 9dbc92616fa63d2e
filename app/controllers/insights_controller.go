package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/statistics"
)

const defaultInsightDays = 30

// HandleGetInsights returns the collected metric series for one account,
// optionally filtered by metric name and limited to the last N days.
func HandleGetInsights(c *fiber.Ctx) error {
	account, err := requireAccount(c)
	if account == nil {
		return err
	}

	days := c.QueryInt("days", defaultInsightDays)
	if days <= 0 {
		days = defaultInsightDays
	}
	metric := c.Query("metric")
	since := time.Now().AddDate(0, 0, -days)

	samples, err := repository.GetGlobalFactory().GetInsightRepository().
		ListSince(account.ID, since, metric)
	if err != nil {
		log.Errorf("failed to load insights for account %d: %v", account.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load insights"})
	}

	return c.JSON(fiber.Map{
		"account": account,
		"days":    days,
		"samples": samples,
	})
}

// HandleGetAudience returns the latest audience snapshot per breakdown type.
func HandleGetAudience(c *fiber.Ctx) error {
	account, err := requireAccount(c)
	if account == nil {
		return err
	}

	snapshots, err := repository.GetGlobalFactory().GetAudienceRepository().Latest(account.ID)
	if err != nil {
		log.Errorf("failed to load audience data for account %d: %v", account.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not load audience data"})
	}

	breakdowns := make([]fiber.Map, 0, len(snapshots))
	for _, s := range snapshots {
		breakdowns = append(breakdowns, fiber.Map{
			"breakdown_type": s.BreakdownType,
			"values":         s.Breakdown(),
			"collected_at":   s.CollectedAt,
		})
	}

	return c.JSON(fiber.Map{
		"account":    account,
		"breakdowns": breakdowns,
	})
}

// HandleGetAccountSummary returns the cached latest-value-per-metric view.
func HandleGetAccountSummary(c *fiber.Ctx) error {
	account, err := requireAccount(c)
	if account == nil {
		return err
	}

	summary, err := statistics.GetAccountSummary(account.ID)
	if err != nil {
		log.Errorf("failed to build summary for account %d: %v", account.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Could not build summary"})
	}

	return c.JSON(fiber.Map{
		"account": account,
		"summary": summary,
	})
}

// requireAccount resolves the :accountID path param to a stored account.
// When the account comes back nil the error response has already been
// written and the handler just returns the given error.
func requireAccount(c *fiber.Ctx) (*models.Account, error) {
	id, err := c.ParamsInt("accountID")
	if err != nil || id <= 0 {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid account id"})
	}

	account, err := repository.GetGlobalFactory().GetAccountRepository().GetByID(uint(id))
	if err != nil || account == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not found"})
	}
	return account, nil
}
