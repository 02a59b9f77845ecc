package services

import (
	"context"
	"errors"
	"time"

	"jewelstock/models"
	"jewelstock/types"
)

// In-memory stand-ins for the persistence boundaries, so the core
// logic is exercised without a database.

var errTest = errors.New("persistence unavailable")

type fakeThresholdRepo struct {
	payloads map[string]string
	deleted  []string
	loadErr  error
	saveErr  error
}

func newFakeThresholdRepo() *fakeThresholdRepo {
	return &fakeThresholdRepo{payloads: map[string]string{}}
}

func (f *fakeThresholdRepo) LoadAll(ctx context.Context) (map[string]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]string, len(f.payloads))
	for k, v := range f.payloads {
		out[k] = v
	}
	return out, nil
}

func (f *fakeThresholdRepo) SaveCategory(ctx context.Context, categoryKey, payload string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.payloads[categoryKey] = payload
	return nil
}

func (f *fakeThresholdRepo) DeleteCategory(ctx context.Context, categoryKey string) error {
	delete(f.payloads, categoryKey)
	f.deleted = append(f.deleted, categoryKey)
	return nil
}

type fakeModeRepo struct {
	rows    []models.WeightMode
	saveErr error
}

func (f *fakeModeRepo) LoadModes(ctx context.Context) ([]models.WeightMode, error) {
	return append([]models.WeightMode(nil), f.rows...), nil
}

func (f *fakeModeRepo) SaveMode(ctx context.Context, categoryKey, itemKey, mode string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows = append(f.rows, models.WeightMode{CategoryKey: categoryKey, ItemKey: itemKey, Mode: mode})
	return nil
}

type stockAdd struct {
	product   models.ProductKey
	weightKey string
	qty       int
	eventType string
	orderID   types.SnowflakeID
}

// fakeOrders keeps orders in memory and mimics the repository's
// per-order allocation transaction, including the stock increment and
// audit side effects.
type fakeOrders struct {
	orders     []*models.Order
	applyErrOn types.SnowflakeID
	// applyBefore runs once inside the next ApplyAllocation call, before
	// clamping, to simulate a concurrent receive landing in between.
	applyBefore func(*models.Order)
	stockAdded  map[string]int
	audits      []stockAdd
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{stockAdded: map[string]int{}}
}

func (f *fakeOrders) add(id int64, createdAt time.Time, items ...models.OrderItem) *models.Order {
	o := &models.Order{ID: types.SnowflakeID(id), CreatedAt: createdAt}
	for i := range items {
		items[i].ID = uint(id*100 + int64(i) + 1)
		items[i].OrderID = o.ID
		items[i].LineNo = i + 1
	}
	o.Items = items
	o.Status = o.DeriveStatus()
	f.orders = append(f.orders, o)
	return o
}

func (f *fakeOrders) FindOpen(ctx context.Context) ([]models.Order, error) {
	var open []models.Order
	for _, o := range f.orders {
		if o.Status != models.OrderStatusPending && o.Status != models.OrderStatusPartial {
			continue
		}
		cp := *o
		cp.Items = append([]models.OrderItem(nil), o.Items...)
		open = append(open, cp)
	}
	for i := 0; i < len(open); i++ {
		for j := i + 1; j < len(open); j++ {
			if open[j].CreatedAt.Before(open[i].CreatedAt) {
				open[i], open[j] = open[j], open[i]
			}
		}
	}
	return open, nil
}

func (f *fakeOrders) ApplyAllocation(ctx context.Context, orderID types.SnowflakeID, product models.ProductKey, weightKey string, allocs []models.LineAllocation) (int, error) {
	if orderID == f.applyErrOn {
		return 0, errors.New("boom")
	}
	var order *models.Order
	for _, o := range f.orders {
		if o.ID == orderID {
			order = o
			break
		}
	}
	if order == nil {
		return 0, errors.New("order not found")
	}
	if f.applyBefore != nil {
		f.applyBefore(order)
		f.applyBefore = nil
	}
	total := 0
	for _, alloc := range allocs {
		for i := range order.Items {
			line := &order.Items[i]
			if line.ID != alloc.ItemID {
				continue
			}
			qty := alloc.Qty
			if out := line.Outstanding(); qty > out {
				qty = out
			}
			line.QtyReceived += qty
			total += qty
		}
	}
	if total == 0 {
		return 0, nil
	}
	order.Status = order.DeriveStatus()
	f.stockAdded[product.String()+"/"+weightKey] += total
	f.audits = append(f.audits, stockAdd{product, weightKey, total, models.AuditReceive, orderID})
	return total, nil
}

type fakeStock struct {
	leaves []models.InventoryStock
	added  []stockAdd
	addErr error
}

func (f *fakeStock) Leaves(ctx context.Context) ([]models.InventoryStock, error) {
	return append([]models.InventoryStock(nil), f.leaves...), nil
}

func (f *fakeStock) AddStockWithAudit(ctx context.Context, product models.ProductKey, weightKey string, qty int, eventType string, orderID types.SnowflakeID) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, stockAdd{product, weightKey, qty, eventType, orderID})
	return nil
}
