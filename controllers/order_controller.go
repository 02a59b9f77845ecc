package controllers

import (
	"errors"
	"strconv"
	"strings"

	"jewelstock/events"
	"jewelstock/keys"
	"jewelstock/models"
	"jewelstock/repositories"
	"jewelstock/services"
	"jewelstock/types"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

type OrderController struct {
	Repo    *repositories.OrderRepository
	Pending *services.PendingAggregator
	Bus     *events.Bus
}

func NewOrderController(repo *repositories.OrderRepository, pending *services.PendingAggregator, bus *events.Bus) *OrderController {
	return &OrderController{Repo: repo, Pending: pending, Bus: bus}
}

type orderLineInput struct {
	Category   string `json:"category" validate:"required"`
	Item       string `json:"item" validate:"required"`
	SubItem    string `json:"sub_item"`
	Weight     string `json:"weight" validate:"required"`
	QtyOrdered int    `json:"qty_ordered" validate:"required,gt=0"`
}

type orderInput struct {
	Name  string           `json:"name"`
	Items []orderLineInput `json:"items" validate:"required,min=1,dive"`
}

func (c *OrderController) Create(ctx *fiber.Ctx) error {
	var input orderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	lines := make([]models.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		lines = append(lines, models.OrderItem{
			CategoryKey: keys.Encode(it.Category),
			ItemKey:     keys.Encode(it.Item),
			SubItemKey:  keys.Encode(it.SubItem),
			WeightKey:   keys.Encode(it.Weight),
			QtyOrdered:  it.QtyOrdered,
		})
	}

	order, err := c.Repo.Create(ctx.Context(), input.Name, lines)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Bus.Publish(events.Event{Topic: events.TopicOrder})
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"order": order},
	})
}

func (c *OrderController) List(ctx *fiber.Ctx) error {
	var statuses []string
	if raw := ctx.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	orders, err := c.Repo.ListByStatus(ctx.Context(), statuses)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"orders": orders},
	})
}

func (c *OrderController) Get(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	order, err := c.Repo.GetByID(ctx.Context(), types.SnowflakeID(id))
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"order": order},
	})
}

type pendingProductInput struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required"`
	SubItem  string `json:"sub_item"`
}

type pendingInput struct {
	Products []pendingProductInput `json:"products" validate:"dive"`
}

type pendingRow struct {
	CategoryKey string         `json:"category_key"`
	ItemKey     string         `json:"item_key"`
	SubItemKey  string         `json:"sub_item_key"`
	Weights     map[string]int `json:"weights"`
}

// GetPending reports outstanding quantities per product and weight. An
// empty product list means all products.
func (c *OrderController) GetPending(ctx *fiber.Ctx) error {
	var input pendingInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var filter map[models.ProductKey]bool
	if len(input.Products) > 0 {
		filter = make(map[models.ProductKey]bool, len(input.Products))
		for _, p := range input.Products {
			filter[productKeyOf(p.Category, p.Item, p.SubItem)] = true
		}
	}

	pending, err := c.Pending.PendingFor(ctx.Context(), filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	rows := make([]pendingRow, 0, len(pending))
	for key, weights := range pending {
		rows = append(rows, pendingRow{
			CategoryKey: key.CategoryKey,
			ItemKey:     key.ItemKey,
			SubItemKey:  key.SubItemKey,
			Weights:     weights,
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"pending": rows},
	})
}
