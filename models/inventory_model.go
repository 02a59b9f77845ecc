package models

import (
	"strings"
	"time"
)

// ProductKey identifies a product position in the hierarchy, all
// segments encoded. It is comparable and used as a map key by the
// pending aggregator and the reconciler.
type ProductKey struct {
	CategoryKey string `json:"category_key"`
	ItemKey     string `json:"item_key"`
	SubItemKey  string `json:"sub_item_key"`
}

func (k ProductKey) String() string {
	return strings.Join([]string{k.CategoryKey, k.ItemKey, k.SubItemKey}, "/")
}

// InventoryStock is one inventory leaf: the on-hand quantity of a
// product at a specific weight. Thresholds live in a separate document;
// a stock row may exist without a threshold and the other way around.
type InventoryStock struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CategoryKey string    `json:"category_key" gorm:"size:100;uniqueIndex:idx_stock_leaf"`
	ItemKey     string    `json:"item_key" gorm:"size:100;uniqueIndex:idx_stock_leaf"`
	SubItemKey  string    `json:"sub_item_key" gorm:"size:100;uniqueIndex:idx_stock_leaf"`
	WeightKey   string    `json:"weight_key" gorm:"size:100;uniqueIndex:idx_stock_leaf"`
	Qty         int       `json:"qty" gorm:"default:0"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s InventoryStock) Product() ProductKey {
	return ProductKey{CategoryKey: s.CategoryKey, ItemKey: s.ItemKey, SubItemKey: s.SubItemKey}
}
