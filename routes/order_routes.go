package routes

import (
	"jewelstock/config"
	"jewelstock/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(app *fiber.App, ctrl *controllers.OrderController) {
	api := app.Group(config.MAIN_ROUTES + "/orders")

	api.Post("/", ctrl.Create)
	api.Get("/", ctrl.List)
	api.Post("/pending", ctrl.GetPending)
	api.Get("/:id", ctrl.Get)
}
