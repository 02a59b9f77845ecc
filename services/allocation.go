package services

import (
	"context"
	"errors"
	"fmt"

	"jewelstock/events"
	"jewelstock/models"
	"jewelstock/types"

	"go.uber.org/zap"
)

var ErrInvalidDelta = errors.New("receive delta must be positive")

// AllocationOrderSource is what the engine needs from order storage:
// the FIFO view of open orders plus per-order atomic allocation.
type AllocationOrderSource interface {
	OpenOrderSource
	ApplyAllocation(ctx context.Context, orderID types.SnowflakeID, product models.ProductKey, weightKey string, allocs []models.LineAllocation) (int, error)
}

// StockReceiver applies a direct stock increase with its audit event in
// one transaction.
type StockReceiver interface {
	AddStockWithAudit(ctx context.Context, product models.ProductKey, weightKey string, qty int, eventType string, orderID types.SnowflakeID) error
}

type AllocationResult struct {
	Allocated   int `json:"allocated"`
	Unallocated int `json:"unallocated"`
}

// AllocationEngine reconciles stock increases (manual entries and
// shipment receipts) against outstanding purchase orders, oldest order
// first.
type AllocationEngine struct {
	orders AllocationOrderSource
	stock  StockReceiver
	bus    *events.Bus
	log    *zap.Logger
}

func NewAllocationEngine(orders AllocationOrderSource, stock StockReceiver, bus *events.Bus, log *zap.Logger) *AllocationEngine {
	return &AllocationEngine{orders: orders, stock: stock, bus: bus, log: log}
}

// AllocateReceive distributes a positive quantity delta FIFO across the
// open orders that still need this product/weight, clamped per line,
// then books any remainder straight into stock with a manual_receive
// audit event. Allocated + Unallocated always equals delta, including
// when an order's transaction fails mid-sequence: orders committed
// before the failure stand, everything not yet applied is reported as
// unallocated alongside the error.
//
// There is no cross-order lock: two concurrent receives for the same
// key can interleave, and FIFO is best effort under contention. The
// per-order transaction re-clamps against fresh data, so over-receiving
// a line is still impossible.
func (e *AllocationEngine) AllocateReceive(ctx context.Context, product models.ProductKey, weightKey string, delta int) (AllocationResult, error) {
	if delta <= 0 {
		return AllocationResult{}, ErrInvalidDelta
	}

	open, err := e.orders.FindOpen(ctx)
	if err != nil {
		return AllocationResult{Unallocated: delta}, err
	}

	remaining := delta
	applied := 0

	for _, order := range open {
		if remaining == 0 {
			break
		}

		var allocs []models.LineAllocation
		planned := 0
		for _, line := range order.Items {
			if remaining == 0 {
				break
			}
			if !line.Matches(product, weightKey) {
				continue
			}
			outstanding := line.Outstanding()
			if outstanding == 0 {
				continue
			}
			take := remaining
			if take > outstanding {
				take = outstanding
			}
			allocs = append(allocs, models.LineAllocation{ItemID: line.ID, Qty: take})
			planned += take
			remaining -= take
		}
		if planned == 0 {
			continue
		}

		got, err := e.orders.ApplyAllocation(ctx, order.ID, product, weightKey, allocs)
		if err != nil {
			e.log.Error("order allocation failed",
				zap.Int64("order_id", int64(order.ID)),
				zap.String("product", product.String()),
				zap.String("weight", weightKey),
				zap.Error(err))
			return AllocationResult{Allocated: applied, Unallocated: delta - applied},
				fmt.Errorf("allocate to order %d: %w", int64(order.ID), err)
		}
		applied += got
		if got < planned {
			// The transaction re-clamped against fresher lines than our
			// plan saw; the shortfall stays available for later orders or
			// the excess path.
			remaining += planned - got
		}
		if got == 0 {
			continue
		}

		e.publish(events.TopicOrder, product, weightKey)
		e.publish(events.TopicInventory, product, weightKey)
	}

	if remaining > 0 {
		// No matching outstanding demand left: auto-allocated excess.
		err := e.stock.AddStockWithAudit(ctx, product, weightKey, remaining, models.AuditManualReceive, 0)
		if err != nil {
			e.log.Error("manual receive failed",
				zap.String("product", product.String()),
				zap.String("weight", weightKey),
				zap.Error(err))
			return AllocationResult{Allocated: applied, Unallocated: delta - applied}, err
		}
		e.publish(events.TopicInventory, product, weightKey)
	}

	return AllocationResult{Allocated: applied, Unallocated: delta - applied}, nil
}

func (e *AllocationEngine) publish(topic events.Topic, product models.ProductKey, weightKey string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{
		Topic:       topic,
		CategoryKey: product.CategoryKey,
		ItemKey:     product.ItemKey,
		SubItemKey:  product.SubItemKey,
		WeightKey:   weightKey,
	})
}
