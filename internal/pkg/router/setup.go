package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router is implemented by every route installer.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// Install HttpRouter first so the shared service wiring (Graph API
	// transport, rate limiter, flow) exists before the API routes that
	// depend on it are registered.
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
