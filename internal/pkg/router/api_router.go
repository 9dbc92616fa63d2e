package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/urlinsta/urlinsta/app/controllers"
	"github.com/urlinsta/urlinsta/internal/pkg/cache"
	"github.com/urlinsta/urlinsta/internal/pkg/constants"
	"github.com/urlinsta/urlinsta/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    limiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "urlinsta api",
		})
	})

	api.Get("/limits", controllers.HandleGetLimits)

	// Scheduler-triggered batch jobs
	cron := api.Group("/cron", middleware.CronSecretMiddleware())
	cron.Post("/refresh-tokens", controllers.HandleCronRefreshTokens)
	cron.Post("/collect-insights", controllers.HandleCronCollectInsights)
	cron.Post("/collect-audience", controllers.HandleCronCollectAudience)

	insights := api.Group("/insights")
	insights.Get("/:accountID", controllers.HandleGetInsights)
	insights.Get("/:accountID/audience", controllers.HandleGetAudience)
	insights.Get("/:accountID/summary", controllers.HandleGetAccountSummary)
}

// limiterStorage backs the inbound limiter with the shared Redis connection
// (separate logical database) so counts survive restarts and multiple
// instances agree on them.
func limiterStorage() *redisstorage.Storage {
	cacheOpts := cache.GetClient().Options()
	host, port := "127.0.0.1", 6379
	if cacheOpts != nil && cacheOpts.Addr != "" {
		if h, p, err := net.SplitHostPort(cacheOpts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		} else {
			host = cacheOpts.Addr
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Username: cacheOpts.Username,
		Password: cacheOpts.Password,
		Database: 2,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
