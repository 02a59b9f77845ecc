package routes

import (
	"jewelstock/config"
	"jewelstock/controllers"

	"github.com/gofiber/fiber/v2"
)

func SetupThresholdRoutes(app *fiber.App, ctrl *controllers.ThresholdController) {
	api := app.Group(config.MAIN_ROUTES + "/thresholds")

	api.Get("/", ctrl.GetAll)
	api.Get("/value", ctrl.GetValue)
	api.Put("/value", ctrl.SetValue)
	api.Delete("/value", ctrl.Remove)

	weights := app.Group(config.MAIN_ROUTES + "/weights")
	weights.Get("/", ctrl.GetWeights)
	weights.Post("/mode", ctrl.SetWeightMode)
}
