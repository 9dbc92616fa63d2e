package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/urlinsta/urlinsta/app/controllers"
	"github.com/urlinsta/urlinsta/internal/pkg/constants"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize the shared Graph API wiring (transport, limiter, flow)
	controllers.InitializeControllers()

	app.Get(constants.AuthLoginRoute, controllers.HandleAuthLogin)
	app.Get(constants.AuthCallbackRoute, controllers.HandleAuthCallback)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
