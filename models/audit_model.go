package models

import (
	"time"

	"jewelstock/types"
)

const (
	AuditReceive       = "receive"
	AuditManualReceive = "manual_receive"
)

// AuditEvent records one stock increase. Rows are insert-only; nothing
// updates or deletes them.
type AuditEvent struct {
	ID          types.SnowflakeID `json:"id" gorm:"primaryKey"`
	Type        string            `json:"type" gorm:"size:20"`
	CategoryKey string            `json:"category_key" gorm:"size:100;index:idx_audit_product"`
	ItemKey     string            `json:"item_key" gorm:"size:100;index:idx_audit_product"`
	SubItemKey  string            `json:"sub_item_key" gorm:"size:100;index:idx_audit_product"`
	WeightKey   string            `json:"weight_key" gorm:"size:100"`
	Qty         int               `json:"qty"`
	OrderID     types.SnowflakeID `json:"order_id" gorm:"default:null"`
	CreatedAt   time.Time         `json:"created_at"`
}
