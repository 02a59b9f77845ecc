package routes

import (
	"jewelstock/config"
	"jewelstock/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupInventoryRoutes(app *fiber.App, ctrl *controllers.InventoryController) {
	api := app.Group(config.MAIN_ROUTES + "/inventory")

	api.Get("/audit", ctrl.GetAudit)
	api.Get("/:category", ctrl.GetByCategory)
	api.Put("/quantity", ctrl.SetQuantity)
	api.Delete("/quantity", ctrl.DeleteQuantity)
	api.Post("/receive", ctrl.Receive)
}
