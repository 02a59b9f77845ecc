package controllers

import (
	"errors"

	"jewelstock/events"
	"jewelstock/keys"
	"jewelstock/models"
	"jewelstock/repositories"
	"jewelstock/services"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

type InventoryController struct {
	Repo   *repositories.InventoryRepository
	Engine *services.AllocationEngine
	Bus    *events.Bus
}

func NewInventoryController(repo *repositories.InventoryRepository, engine *services.AllocationEngine, bus *events.Bus) *InventoryController {
	return &InventoryController{Repo: repo, Engine: engine, Bus: bus}
}

type quantityInput struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required"`
	SubItem  string `json:"sub_item"`
	Weight   string `json:"weight" validate:"required"`
	Qty      *int   `json:"qty" validate:"required"`
}

func productKeyOf(category, item, subItem string) models.ProductKey {
	return models.ProductKey{
		CategoryKey: keys.Encode(category),
		ItemKey:     keys.Encode(item),
		SubItemKey:  keys.Encode(subItem),
	}
}

func (c *InventoryController) GetByCategory(ctx *fiber.Ctx) error {
	category := ctx.Params("category")
	leaves, err := c.Repo.LeavesByCategory(ctx.Context(), keys.Encode(category))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"stock": leaves},
	})
}

// SetQuantity is the direct-edit path: absolute sets and decreases.
// Stock increases should go through Receive so they reconcile against
// open orders.
func (c *InventoryController) SetQuantity(ctx *fiber.Ctx) error {
	var input quantityInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	product := productKeyOf(input.Category, input.Item, input.SubItem)
	weight := keys.Encode(input.Weight)

	err := c.Repo.SetQty(ctx.Context(), product, weight, *input.Qty)
	if errors.Is(err, repositories.ErrNegativeQty) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.publishInventory(product, weight)
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (c *InventoryController) DeleteQuantity(ctx *fiber.Ctx) error {
	category := ctx.Query("category")
	item := ctx.Query("item")
	weight := ctx.Query("weight")
	if category == "" || item == "" || weight == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category, item and weight are required"})
	}

	product := productKeyOf(category, item, ctx.Query("sub_item"))
	w := keys.Encode(weight)
	if err := c.Repo.DeleteQty(ctx.Context(), product, w); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.publishInventory(product, w)
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// Receive books a stock increase and allocates it FIFO against
// outstanding purchase orders. A partial allocation is a normal
// outcome, not an error.
func (c *InventoryController) Receive(ctx *fiber.Ctx) error {
	var input quantityInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	product := productKeyOf(input.Category, input.Item, input.SubItem)
	weight := keys.Encode(input.Weight)

	result, err := c.Engine.AllocateReceive(ctx.Context(), product, weight, *input.Qty)
	if errors.Is(err, services.ErrInvalidDelta) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		// Committed order transactions stand; report how far we got.
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
			"data":  fiber.Map{"allocated": result.Allocated, "unallocated": result.Unallocated},
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"allocated": result.Allocated, "unallocated": result.Unallocated},
	})
}

func (c *InventoryController) GetAudit(ctx *fiber.Ctx) error {
	category := ctx.Query("category")
	item := ctx.Query("item")
	if category == "" || item == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category and item are required"})
	}

	product := productKeyOf(category, item, ctx.Query("sub_item"))
	audit, err := c.Repo.ListAudit(ctx.Context(), product)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"events": audit},
	})
}

func (c *InventoryController) publishInventory(product models.ProductKey, weight string) {
	c.Bus.Publish(events.Event{
		Topic:       events.TopicInventory,
		CategoryKey: product.CategoryKey,
		ItemKey:     product.ItemKey,
		SubItemKey:  product.SubItemKey,
		WeightKey:   weight,
	})
}
