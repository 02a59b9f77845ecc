package main

import (
	"context"
	"log"

	"jewelstock/config"
	"jewelstock/controllers"
	"jewelstock/controllers/idgen"
	"jewelstock/database"
	"jewelstock/events"
	"jewelstock/mailer"
	"jewelstock/repositories"
	"jewelstock/routes"
	"jewelstock/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	database.EnsureDatabaseExists(config.DBName)

	db, err := database.OpenDatabaseConnection(config.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	if config.SeedDemo {
		database.SeedDemo(db)
	}

	idgen.Init()

	bus := events.NewBus()

	thresholdRepo := repositories.NewThresholdRepository(db)
	modeRepo := repositories.NewWeightModeRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	store := services.NewThresholdStore(thresholdRepo, logger)
	if err := store.Load(context.Background()); err != nil {
		logger.Warn("starting with empty threshold configuration", zap.Error(err))
	}

	schema := services.NewWeightSchema(store, modeRepo, logger)
	if err := schema.Load(context.Background()); err != nil {
		logger.Warn("starting with empty weight schema", zap.Error(err))
	}

	pending := services.NewPendingAggregator(orderRepo, logger)
	engine := services.NewAllocationEngine(orderRepo, inventoryRepo, bus, logger)
	reconciler := services.NewReconciler(inventoryRepo, store, pending, bus, logger)

	var alertMailer *mailer.Mailer
	if config.SMTPHost != "" && config.SMTPSender != "" {
		alertMailer = mailer.New(config.SMTPHost, config.SMTPPort,
			config.SMTPSender, config.SMTPPassword, config.AlertRecipients)
	}

	app := fiber.New()
	config.SetupCORS(app)

	routes.SetupThresholdRoutes(app, controllers.NewThresholdController(store, schema, bus))
	routes.SetupInventoryRoutes(app, controllers.NewInventoryController(inventoryRepo, engine, bus))
	routes.SetupOrderRoutes(app, controllers.NewOrderController(orderRepo, pending, bus))
	routes.SetupReorderRoutes(app, controllers.NewReorderController(reconciler, alertMailer))

	log.Fatal(app.Listen(":" + config.APP_PORT))
}
