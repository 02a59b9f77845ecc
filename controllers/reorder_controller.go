package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"jewelstock/mailer"
	"jewelstock/report"
	"jewelstock/services"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type ReorderController struct {
	Rec  *services.Reconciler
	Mail *mailer.Mailer
}

func NewReorderController(rec *services.Reconciler, mail *mailer.Mailer) *ReorderController {
	return &ReorderController{Rec: rec, Mail: mail}
}

func (c *ReorderController) GetRows(ctx *fiber.Ctx) error {
	rows := c.Rec.Rows(ctx.Context())
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"rows": rows},
	})
}

// ExportExcel streams the reorder rows as a spreadsheet.
func (c *ReorderController) ExportExcel(ctx *fiber.Ctx) error {
	rows := c.Rec.Rows(ctx.Context())
	f := report.BuildReorderWorkbook(rows)

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="reorder.xlsx"`)

	if err := f.Write(ctx.Response().BodyWriter()); err != nil {
		return ctx.Status(http.StatusInternalServerError).SendString("Failed to generate Excel")
	}
	return nil
}

// Stream pushes reorder snapshots as server-sent events: one on
// connect, then one per threshold/inventory/order change.
func (c *ReorderController) Stream(ctx *fiber.Ctx) error {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for rows := range c.Rec.Stream(sctx) {
			payload, err := json.Marshal(rows)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			// Flush failing means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

// Notify mails the current reorder rows to the configured recipients.
func (c *ReorderController) Notify(ctx *fiber.Ctx) error {
	if c.Mail == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "mailer is not configured"})
	}

	rows := c.Rec.Rows(ctx.Context())
	if err := c.Mail.SendReorderAlert(rows); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"rows": len(rows)},
	})
}
