package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/lifecycle"
	"github.com/urlinsta/urlinsta/internal/pkg/statistics"
)

// The cron endpoints only trigger work; scheduling lives outside the service
// (system cron, a workflow runner, whatever the operator prefers). Each run
// gets an id so log lines and the returned summary can be correlated.

// HandleCronRefreshTokens renews every user credential expiring within the
// renewal horizon and re-syncs the page credentials alongside.
func HandleCronRefreshTokens(c *fiber.Ctx) error {
	runID := uuid.NewString()
	started := time.Now()
	log.Infof("[cron %s] token refresh started", runID)

	summary := tokenManager.RenewExpiring(c.Context(), lifecycle.DefaultRenewalHorizonDays)

	log.Infof("[cron %s] token refresh finished: %d checked, %d refreshed, %d failed (%.1fs)",
		runID, summary.Checked, summary.Refreshed, summary.Failed, time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"run_id":          runID,
		"checked":         summary.Checked,
		"refreshed":       summary.Refreshed,
		"failed":          summary.Failed,
		"page_sync_skips": summary.PageSyncSkips,
		"errors":          summary.Errors,
		"duration_ms":     time.Since(started).Milliseconds(),
	})
}

// HandleCronCollectInsights runs the full collection pipeline (insights plus
// audience demographics) across all connected accounts.
func HandleCronCollectInsights(c *fiber.Ctx) error {
	return runCollection(c, false)
}

// HandleCronCollectAudience runs the audience-only collection, used on a
// slower schedule since demographics move slowly.
func HandleCronCollectAudience(c *fiber.Ctx) error {
	return runCollection(c, true)
}

func runCollection(c *fiber.Ctx, audienceOnly bool) error {
	runID := uuid.NewString()
	started := time.Now()
	kind := "insights"
	if audienceOnly {
		kind = "audience"
	}
	log.Infof("[cron %s] %s collection started", runID, kind)

	summary := pipeline.Run(c.Context(), audienceOnly)

	// New samples make every cached summary stale.
	accounts, err := accountIDsForInvalidation(repository.GetGlobalFactory().GetAccountRepository())
	if err != nil {
		log.Warnf("[cron %s] account listing for cache invalidation failed: %v", runID, err)
	}
	for _, id := range accounts {
		statistics.InvalidateAccountSummary(id)
	}

	log.Infof("[cron %s] %s collection finished: %d accounts, insights %d/%d, audience %d/%d (%.1fs)",
		runID, kind, summary.TotalAccounts,
		summary.InsightsSuccess, summary.InsightsSuccess+summary.InsightsFailed,
		summary.AudienceSuccess, summary.AudienceSuccess+summary.AudienceFailed,
		time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"run_id":           runID,
		"total_accounts":   summary.TotalAccounts,
		"insights_success": summary.InsightsSuccess,
		"insights_failed":  summary.InsightsFailed,
		"audience_success": summary.AudienceSuccess,
		"audience_failed":  summary.AudienceFailed,
		"errors":           summary.Errors,
		"duration_ms":      time.Since(started).Milliseconds(),
	})
}

func accountIDsForInvalidation(accounts repository.AccountRepository) ([]uint, error) {
	all, err := accounts.List()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
