package services

import (
	"context"
	"testing"
	"time"

	"jewelstock/events"
	"jewelstock/models"

	"go.uber.org/zap"
)

func stockLeaf(p models.ProductKey, weight string, qty int) models.InventoryStock {
	return models.InventoryStock{
		CategoryKey: p.CategoryKey,
		ItemKey:     p.ItemKey,
		SubItemKey:  p.SubItemKey,
		WeightKey:   weight,
		Qty:         qty,
	}
}

func newTestReconciler(t *testing.T, stock *fakeStock, orders *fakeOrders) (*Reconciler, *ThresholdStore, *events.Bus) {
	t.Helper()
	store, _ := newTestStore(t)
	bus := events.NewBus()
	pending := NewPendingAggregator(orders, zap.NewNop())
	return NewReconciler(stock, store, pending, bus, zap.NewNop()), store, bus
}

func TestRowsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	stock := &fakeStock{leaves: []models.InventoryStock{stockLeaf(band, "2g", 4)}}
	orders := newFakeOrders()
	orders.add(1, time.Now(), orderLine(band, "2g", 3, 0))

	rec, store, _ := newTestReconciler(t, stock, orders)
	store.Set(ctx, "Rings", "Band", "S1", "2g", 10)

	rows := rec.Rows(ctx)
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want one", rows)
	}
	row := rows[0]
	if row.Qty != 4 || row.Pending != 3 || row.Threshold != 10 || row.ToOrder != 3 {
		t.Errorf("row = %+v, want qty 4 pending 3 threshold 10 toOrder 3", row)
	}
}

func TestRowsCoveredPositionsOmitted(t *testing.T) {
	ctx := context.Background()
	stock := &fakeStock{leaves: []models.InventoryStock{
		stockLeaf(band, "2g", 4),
		stockLeaf(band, "4g", 20),
	}}
	rec, store, _ := newTestReconciler(t, stock, newFakeOrders())
	store.Set(ctx, "Rings", "Band", "S1", "2g", 4) // exactly at threshold
	store.Set(ctx, "Rings", "Band", "S1", "4g", 10)

	if rows := rec.Rows(ctx); len(rows) != 0 {
		t.Errorf("covered positions must not appear: %v", rows)
	}
}

func TestRowsUnconfiguredAndZeroThresholds(t *testing.T) {
	ctx := context.Background()
	stock := &fakeStock{leaves: []models.InventoryStock{stockLeaf(band, "2g", 0)}}
	rec, store, _ := newTestReconciler(t, stock, newFakeOrders())

	// No threshold configured at all: no row, even at zero stock.
	if rows := rec.Rows(ctx); len(rows) != 0 {
		t.Errorf("unconfigured leaf produced rows: %v", rows)
	}

	// A zero threshold is not an order signal either.
	store.Set(ctx, "Rings", "Band", "S1", "2g", 0)
	if rows := rec.Rows(ctx); len(rows) != 0 {
		t.Errorf("zero threshold produced rows: %v", rows)
	}
}

func TestRowsThresholdWithoutInventory(t *testing.T) {
	ctx := context.Background()
	stock := &fakeStock{}
	orders := newFakeOrders()
	orders.add(1, time.Now(), orderLine(band, "2g", 2, 0))

	rec, store, _ := newTestReconciler(t, stock, orders)
	store.Set(ctx, "Rings", "Band", "S1", "2g", 5)

	rows := rec.Rows(ctx)
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want the threshold-only position", rows)
	}
	if rows[0].Qty != 0 || rows[0].Pending != 2 || rows[0].ToOrder != 3 {
		t.Errorf("row = %+v, want qty 0 pending 2 toOrder 3", rows[0])
	}
}

func TestRowsWeightSpellingVariantsStayOneRow(t *testing.T) {
	ctx := context.Background()
	// Stock stored with an underscore, threshold configured with a
	// space: both spellings name the same position and must produce a
	// single row.
	stock := &fakeStock{leaves: []models.InventoryStock{stockLeaf(band, "2_5g", 4)}}
	rec, store, _ := newTestReconciler(t, stock, newFakeOrders())
	store.Set(ctx, "Rings", "Band", "S1", "2 5g", 10)

	rows := rec.Rows(ctx)
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want one row for the variant-spelled position", rows)
	}
	if rows[0].WeightKey != "2_5g" || rows[0].Qty != 4 || rows[0].ToOrder != 6 {
		t.Errorf("row = %+v, want weight 2_5g qty 4 toOrder 6", rows[0])
	}
}

func TestRowsPendingCoversShortfall(t *testing.T) {
	ctx := context.Background()
	stock := &fakeStock{leaves: []models.InventoryStock{stockLeaf(band, "2g", 4)}}
	orders := newFakeOrders()
	orders.add(1, time.Now(), orderLine(band, "2g", 6, 0))

	rec, store, _ := newTestReconciler(t, stock, orders)
	store.Set(ctx, "Rings", "Band", "S1", "2g", 10)

	if rows := rec.Rows(ctx); len(rows) != 0 {
		t.Errorf("qty+pending meets threshold, want no rows: %v", rows)
	}
}

func TestStreamRecomputesOnEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stock := &fakeStock{leaves: []models.InventoryStock{stockLeaf(band, "2g", 4)}}
	rec, store, bus := newTestReconciler(t, stock, newFakeOrders())
	store.Set(ctx, "Rings", "Band", "S1", "2g", 10)

	ch := rec.Stream(ctx)

	first := waitRows(t, ch)
	if len(first) != 1 || first[0].ToOrder != 6 {
		t.Fatalf("initial snapshot = %v", first)
	}

	// An inventory change triggers a recompute against fresh data.
	stock.leaves[0].Qty = 10
	bus.Publish(events.Event{Topic: events.TopicInventory})
	if rows := waitRows(t, ch); len(rows) != 0 {
		t.Errorf("expected empty snapshot after restock, got %v", rows)
	}

	cancel()
	if _, ok := waitClosed(ch); ok {
		t.Error("stream must close on context cancel")
	}
}

func waitRows(t *testing.T, ch <-chan []ReorderRow) []ReorderRow {
	t.Helper()
	select {
	case rows := <-ch:
		return rows
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reorder snapshot")
		return nil
	}
}

func waitClosed(ch <-chan []ReorderRow) ([]ReorderRow, bool) {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case rows, ok := <-ch:
			if !ok {
				return nil, false
			}
			_ = rows
		case <-deadline:
			return nil, true
		}
	}
}
