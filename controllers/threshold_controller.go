package controllers

import (
	"errors"

	"jewelstock/events"
	"jewelstock/keys"
	"jewelstock/services"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

type ThresholdController struct {
	Store  *services.ThresholdStore
	Schema *services.WeightSchema
	Bus    *events.Bus
}

func NewThresholdController(store *services.ThresholdStore, schema *services.WeightSchema, bus *events.Bus) *ThresholdController {
	return &ThresholdController{Store: store, Schema: schema, Bus: bus}
}

type thresholdInput struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required"`
	SubItem  string `json:"sub_item"`
	Weight   string `json:"weight" validate:"required"`
	Value    *int   `json:"value" validate:"required"`
}

func (c *ThresholdController) GetAll(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"thresholds": c.Store.Snapshot()},
	})
}

func (c *ThresholdController) GetValue(ctx *fiber.Ctx) error {
	category := ctx.Query("category")
	item := ctx.Query("item")
	if category == "" || item == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category and item are required"})
	}

	value, ok := c.Store.Get(category, item, ctx.Query("sub_item"), ctx.Query("weight"))
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"value": value, "configured": ok},
	})
}

func (c *ThresholdController) SetValue(ctx *fiber.Ctx) error {
	var input thresholdInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := c.Store.Set(ctx.Context(), input.Category, input.Item, input.SubItem, input.Weight, *input.Value)
	if errors.Is(err, services.ErrNegativeThreshold) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	c.Bus.Publish(events.Event{
		Topic:       events.TopicThreshold,
		CategoryKey: keys.Encode(input.Category),
		ItemKey:     keys.Encode(input.Item),
		SubItemKey:  keys.Encode(input.SubItem),
		WeightKey:   keys.Encode(input.Weight),
	})

	if err != nil {
		// Edit kept in memory, persistence will be retried on the next
		// save. The table must not break over this.
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"warning": "threshold saved in memory only: " + err.Error(),
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (c *ThresholdController) Remove(ctx *fiber.Ctx) error {
	category := ctx.Query("category")
	item := ctx.Query("item")
	weight := ctx.Query("weight")
	if category == "" || item == "" || weight == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category, item and weight are required"})
	}

	err := c.Store.Remove(ctx.Context(), category, item, ctx.Query("sub_item"), weight)

	c.Bus.Publish(events.Event{
		Topic:       events.TopicThreshold,
		CategoryKey: keys.Encode(category),
		ItemKey:     keys.Encode(item),
		SubItemKey:  keys.Encode(ctx.Query("sub_item")),
		WeightKey:   keys.Encode(weight),
	})

	if err != nil {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"warning": "threshold removed in memory only: " + err.Error(),
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (c *ThresholdController) GetWeights(ctx *fiber.Ctx) error {
	category := ctx.Query("category")
	item := ctx.Query("item")
	if category == "" || item == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category and item are required"})
	}

	weights := c.Schema.WeightsFor(category, item, ctx.Query("sub_item"))
	mode, configured := c.Schema.Mode(category, item)
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"weights": weights, "mode": mode, "mode_configured": configured},
	})
}

type weightModeInput struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required"`
	Mode     string `json:"mode" validate:"required"`
}

func (c *ThresholdController) SetWeightMode(ctx *fiber.Ctx) error {
	var input weightModeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ok, err := c.Schema.SetMode(ctx.Context(), input.Category, input.Item, input.Mode)
	if err != nil {
		if errors.Is(err, services.ErrInvalidWeightMode) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !ok {
		// Locked on first set; changing it would corrupt quantity data
		// already keyed by the old schema.
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "weight mode is already set and cannot be changed",
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
