package models

import (
	"time"

	"jewelstock/types"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPartial  = "partial"
	OrderStatusReceived = "received"
)

// Order is a purchase order. Status is derived from its line items and
// recomputed on every allocation, never set directly by callers.
type Order struct {
	ID        types.SnowflakeID `json:"id" gorm:"primaryKey"`
	Name      string            `json:"name" gorm:"size:191"`
	Status    string            `json:"status" gorm:"size:20;index"`
	Items     []OrderItem       `json:"items" gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt time.Time         `json:"created_at" gorm:"index"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// OrderItem is one purchase-order line. QtyReceived only ever grows,
// and never past QtyOrdered.
type OrderItem struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	OrderID     types.SnowflakeID `json:"order_id" gorm:"index"`
	LineNo      int               `json:"line_no"`
	CategoryKey string            `json:"category_key" gorm:"size:100;index:idx_order_item_product"`
	ItemKey     string            `json:"item_key" gorm:"size:100;index:idx_order_item_product"`
	SubItemKey  string            `json:"sub_item_key" gorm:"size:100;index:idx_order_item_product"`
	WeightKey   string            `json:"weight_key" gorm:"size:100;index:idx_order_item_product"`
	QtyOrdered  int               `json:"qty_ordered" gorm:"default:0"`
	QtyReceived int               `json:"qty_received" gorm:"default:0"`
}

func (it OrderItem) Product() ProductKey {
	return ProductKey{CategoryKey: it.CategoryKey, ItemKey: it.ItemKey, SubItemKey: it.SubItemKey}
}

// Outstanding is the still-open quantity of the line, floored at zero.
func (it OrderItem) Outstanding() int {
	if out := it.QtyOrdered - it.QtyReceived; out > 0 {
		return out
	}
	return 0
}

func (it OrderItem) Matches(product ProductKey, weightKey string) bool {
	return it.Product() == product && it.WeightKey == weightKey
}

// DeriveStatus computes the order status from its line items:
// received when every line is fully received, partial when anything has
// been received at all, pending otherwise.
func (o *Order) DeriveStatus() string {
	if len(o.Items) == 0 {
		return OrderStatusPending
	}
	allDone := true
	anyReceived := false
	for _, it := range o.Items {
		if it.QtyReceived < it.QtyOrdered {
			allDone = false
		}
		if it.QtyReceived > 0 {
			anyReceived = true
		}
	}
	if allDone {
		return OrderStatusReceived
	}
	if anyReceived {
		return OrderStatusPartial
	}
	return OrderStatusPending
}

// LineAllocation is one planned receipt against a specific order line.
type LineAllocation struct {
	ItemID uint `json:"item_id"`
	Qty    int  `json:"qty"`
}
