package repositories

import (
	"context"
	"errors"
	"fmt"

	"jewelstock/controllers/idgen"
	"jewelstock/models"
	"jewelstock/types"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderLineNotFound = errors.New("order line not found")
	ErrNoOrderLines      = errors.New("order needs at least one line")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new purchase order from a reorder selection. Line
// numbers follow the given slice order.
func (r *OrderRepository) Create(ctx context.Context, name string, lines []models.OrderItem) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoOrderLines
	}
	for i := range lines {
		if lines[i].QtyOrdered <= 0 {
			return nil, fmt.Errorf("line %d: qty_ordered must be positive", i+1)
		}
	}

	order := models.Order{
		ID:     types.SnowflakeID(idgen.GenerateID()),
		Name:   name,
		Status: models.OrderStatusPending,
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.New("failed to start transaction")
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].OrderID = order.ID
		lines[i].LineNo = i + 1
		lines[i].QtyReceived = 0
		if err := tx.Create(&lines[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	order.Items = lines
	return &order, nil
}

// FindOpen returns pending and partial orders oldest first, line items
// preloaded in line order. This ordering is what makes allocation FIFO.
func (r *OrderRepository) FindOpen(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.OrderStatusPending, models.OrderStatusPartial}).
		Order("created_at ASC, id ASC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, statuses []string) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Order("created_at DESC").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id types.SnowflakeID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyAllocation commits one order's share of a receipt as a single
// transaction: line updates, status recompute, stock increment and the
// audit event all land together or not at all. The order is re-read
// inside the transaction and every line is clamped against the fresh
// outstanding amount, so a stale plan can never push qty_received past
// qty_ordered. Returns the quantity actually applied, which can be less
// than the plan when another receive landed in between.
func (r *OrderRepository) ApplyAllocation(ctx context.Context, orderID types.SnowflakeID, product models.ProductKey, weightKey string, allocs []models.LineAllocation) (int, error) {
	if len(allocs) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, errors.New("failed to start transaction")
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	var order models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	}).First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return 0, ErrOrderNotFound
	}
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	byID := make(map[uint]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		byID[order.Items[i].ID] = &order.Items[i]
	}

	total := 0
	for _, alloc := range allocs {
		line, ok := byID[alloc.ItemID]
		if !ok {
			tx.Rollback()
			return 0, ErrOrderLineNotFound
		}
		qty := alloc.Qty
		if out := line.Outstanding(); qty > out {
			qty = out
		}
		if qty <= 0 {
			continue
		}
		line.QtyReceived += qty
		total += qty
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", line.ID).
			Update("qty_received", line.QtyReceived).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	if total == 0 {
		tx.Rollback()
		return 0, nil
	}

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", order.DeriveStatus()).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := upsertStockTx(tx, product, weightKey, total, true); err != nil {
		tx.Rollback()
		return 0, err
	}

	event := models.AuditEvent{
		ID:          types.SnowflakeID(idgen.GenerateID()),
		Type:        models.AuditReceive,
		CategoryKey: product.CategoryKey,
		ItemKey:     product.ItemKey,
		SubItemKey:  product.SubItemKey,
		WeightKey:   weightKey,
		Qty:         total,
		OrderID:     order.ID,
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return total, nil
}
