package routes

import (
	"jewelstock/config"
	"jewelstock/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupReorderRoutes(app *fiber.App, ctrl *controllers.ReorderController) {
	api := app.Group(config.MAIN_ROUTES + "/reorder")

	api.Get("/", ctrl.GetRows)
	api.Get("/excel", ctrl.ExportExcel)
	api.Get("/stream", ctrl.Stream)
	api.Post("/notify", ctrl.Notify)
}
