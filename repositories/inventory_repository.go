package repositories

import (
	"context"
	"errors"

	"jewelstock/controllers/idgen"
	"jewelstock/models"
	"jewelstock/types"

	"gorm.io/gorm"
)

var ErrNegativeQty = errors.New("quantity must not be negative")

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Leaves returns every stock row, ordered by key path so reorder output
// is stable.
func (r *InventoryRepository) Leaves(ctx context.Context) ([]models.InventoryStock, error) {
	var leaves []models.InventoryStock
	err := r.db.WithContext(ctx).
		Order("category_key, item_key, sub_item_key, weight_key").
		Find(&leaves).Error
	if err != nil {
		return nil, err
	}
	return leaves, nil
}

func (r *InventoryRepository) LeavesByCategory(ctx context.Context, categoryKey string) ([]models.InventoryStock, error) {
	var leaves []models.InventoryStock
	err := r.db.WithContext(ctx).
		Where("category_key = ?", categoryKey).
		Order("item_key, sub_item_key, weight_key").
		Find(&leaves).Error
	if err != nil {
		return nil, err
	}
	return leaves, nil
}

func (r *InventoryRepository) GetQty(ctx context.Context, product models.ProductKey, weightKey string) (int, bool, error) {
	var row models.InventoryStock
	err := r.db.WithContext(ctx).
		Where("category_key = ? AND item_key = ? AND sub_item_key = ? AND weight_key = ?",
			product.CategoryKey, product.ItemKey, product.SubItemKey, weightKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.Qty, true, nil
}

// SetQty writes an absolute quantity. This is the direct-edit path for
// decreases and corrections; stock increases should go through the
// allocation engine instead.
func (r *InventoryRepository) SetQty(ctx context.Context, product models.ProductKey, weightKey string, qty int) error {
	if qty < 0 {
		return ErrNegativeQty
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.New("failed to start transaction")
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := upsertStockTx(tx, product, weightKey, qty, false); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// DeleteQty removes a single leaf (field delete in the document view).
func (r *InventoryRepository) DeleteQty(ctx context.Context, product models.ProductKey, weightKey string) error {
	return r.db.WithContext(ctx).
		Where("category_key = ? AND item_key = ? AND sub_item_key = ? AND weight_key = ?",
			product.CategoryKey, product.ItemKey, product.SubItemKey, weightKey).
		Delete(&models.InventoryStock{}).Error
}

// AddStockWithAudit applies a stock increase and its audit event in one
// transaction. Used for the unallocated remainder of a receipt.
func (r *InventoryRepository) AddStockWithAudit(ctx context.Context, product models.ProductKey, weightKey string, qty int, eventType string, orderID types.SnowflakeID) error {
	if qty <= 0 {
		return ErrNegativeQty
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.New("failed to start transaction")
	}
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	if err := upsertStockTx(tx, product, weightKey, qty, true); err != nil {
		tx.Rollback()
		return err
	}

	event := models.AuditEvent{
		ID:          types.SnowflakeID(idgen.GenerateID()),
		Type:        eventType,
		CategoryKey: product.CategoryKey,
		ItemKey:     product.ItemKey,
		SubItemKey:  product.SubItemKey,
		WeightKey:   weightKey,
		Qty:         qty,
		OrderID:     orderID,
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (r *InventoryRepository) ListAudit(ctx context.Context, product models.ProductKey) ([]models.AuditEvent, error) {
	var audit []models.AuditEvent
	err := r.db.WithContext(ctx).
		Where("category_key = ? AND item_key = ? AND sub_item_key = ?",
			product.CategoryKey, product.ItemKey, product.SubItemKey).
		Order("created_at DESC").
		Find(&audit).Error
	if err != nil {
		return nil, err
	}
	return audit, nil
}

// upsertStockTx writes one stock leaf inside an open transaction. With
// increment true the quantity is added to the current value, otherwise
// it replaces it.
func upsertStockTx(tx *gorm.DB, product models.ProductKey, weightKey string, qty int, increment bool) error {
	var row models.InventoryStock
	err := tx.Where("category_key = ? AND item_key = ? AND sub_item_key = ? AND weight_key = ?",
		product.CategoryKey, product.ItemKey, product.SubItemKey, weightKey).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.InventoryStock{
			CategoryKey: product.CategoryKey,
			ItemKey:     product.ItemKey,
			SubItemKey:  product.SubItemKey,
			WeightKey:   weightKey,
			Qty:         qty,
		}).Error
	}
	if err != nil {
		return err
	}

	newQty := qty
	if increment {
		newQty = row.Qty + qty
	}
	return tx.Model(&models.InventoryStock{}).Where("id = ?", row.ID).
		Update("qty", newQty).Error
}
