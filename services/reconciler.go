package services

import (
	"context"

	"jewelstock/events"
	"jewelstock/keys"
	"jewelstock/models"

	"go.uber.org/zap"
)

// StockSource exposes every inventory leaf.
type StockSource interface {
	Leaves(ctx context.Context) ([]models.InventoryStock, error)
}

// ReorderRow is one below-threshold position and the quantity to order.
type ReorderRow struct {
	CategoryKey string `json:"category_key"`
	ItemKey     string `json:"item_key"`
	SubItemKey  string `json:"sub_item_key"`
	WeightKey   string `json:"weight_key"`
	Qty         int    `json:"qty"`
	Pending     int    `json:"pending"`
	Threshold   int    `json:"threshold"`
	ToOrder     int    `json:"to_order"`
}

// Reconciler joins inventory quantities, outstanding order quantities
// and configured thresholds into the reorder view. It is recomputed
// from storage on every upstream change rather than patched
// incrementally.
type Reconciler struct {
	stock      StockSource
	thresholds *ThresholdStore
	pending    *PendingAggregator
	bus        *events.Bus
	log        *zap.Logger
}

func NewReconciler(stock StockSource, thresholds *ThresholdStore, pending *PendingAggregator, bus *events.Bus, log *zap.Logger) *Reconciler {
	return &Reconciler{stock: stock, thresholds: thresholds, pending: pending, bus: bus, log: log}
}

// Rows computes the current reorder rows: every configured threshold
// path where threshold - (qty + pending) > 0. Threshold paths with no
// inventory row yet count with quantity zero; thresholds of zero or
// unconfigured paths never produce a row. Failures are logged and come
// back as an empty result, never as a panic or error to the view.
func (r *Reconciler) Rows(ctx context.Context) []ReorderRow {
	leaves, err := r.stock.Leaves(ctx)
	if err != nil {
		r.log.Warn("reorder view: inventory read failed", zap.Error(err))
		return nil
	}

	pend, err := r.pending.PendingFor(ctx, nil)
	if err != nil {
		r.log.Warn("reorder view: pending read failed", zap.Error(err))
		pend = nil
	}

	var rows []ReorderRow
	seen := map[models.ProductKey]map[string]bool{}

	for _, leaf := range leaves {
		key := leaf.Product()
		if seen[key] == nil {
			seen[key] = map[string]bool{}
		}
		// A threshold matched through a weight-spelling variant must not
		// surface a second, threshold-only row for the same position.
		for _, variant := range keys.WeightVariants(leaf.WeightKey) {
			seen[key][variant] = true
		}

		if row, ok := r.buildRow(key, leaf.WeightKey, leaf.Qty, pend); ok {
			rows = append(rows, row)
		}
	}

	// Threshold paths with no stock row yet still need covering when
	// their threshold is positive.
	tree := r.thresholds.Snapshot()
	for _, cat := range sortedKeys(tree) {
		for _, item := range sortedKeys(tree[cat]) {
			for _, sub := range sortedKeys(tree[cat][item]) {
				if keys.IsReserved(sub) {
					continue
				}
				key := models.ProductKey{CategoryKey: cat, ItemKey: item, SubItemKey: sub}
				for _, weight := range sortedKeys(tree[cat][item][sub]) {
					if keys.IsReserved(weight) || seen[key][weight] {
						continue
					}
					if row, ok := r.buildRow(key, weight, 0, pend); ok {
						rows = append(rows, row)
					}
				}
			}
		}
	}

	return rows
}

func (r *Reconciler) buildRow(key models.ProductKey, weightKey string, qty int, pend map[models.ProductKey]map[string]int) (ReorderRow, bool) {
	threshold, ok := r.thresholds.Get(key.CategoryKey, key.ItemKey, key.SubItemKey, weightKey)
	if !ok || threshold <= 0 {
		return ReorderRow{}, false
	}
	pending := pend[key][weightKey]
	toOrder := threshold - (qty + pending)
	if toOrder <= 0 {
		return ReorderRow{}, false
	}
	return ReorderRow{
		CategoryKey: key.CategoryKey,
		ItemKey:     key.ItemKey,
		SubItemKey:  key.SubItemKey,
		WeightKey:   weightKey,
		Qty:         qty,
		Pending:     pending,
		Threshold:   threshold,
		ToOrder:     toOrder,
	}, true
}

// Stream emits the current rows immediately and again after every
// threshold, inventory or order change, newest snapshot wins when the
// consumer lags. The channel closes when ctx is done.
func (r *Reconciler) Stream(ctx context.Context) <-chan []ReorderRow {
	out := make(chan []ReorderRow, 1)
	evs, cancel := r.bus.Subscribe(events.TopicThreshold, events.TopicInventory, events.TopicOrder)

	go func() {
		defer close(out)
		defer cancel()

		send := func() {
			rows := r.Rows(ctx)
			select {
			case out <- rows:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- rows:
				default:
				}
			}
		}

		send()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-evs:
				if !ok {
					return
				}
				send()
			}
		}
	}()

	return out
}
