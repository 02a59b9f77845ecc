package models

import "time"

// ThresholdDoc holds the full nested threshold configuration of one
// category as a JSON payload: item -> subItem -> weight -> minimum
// quantity, every key already encoded. Load and save are whole-document
// operations, never field patches.
type ThresholdDoc struct {
	CategoryKey string    `json:"category_key" gorm:"primaryKey;size:191"`
	Payload     string    `json:"payload" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	WeightModeShared     = "shared"
	WeightModePerSubItem = "perSubItem"
)

// WeightMode records the weight-column schema decision of one item.
// A row is written exactly once; the mode is never updated afterwards.
type WeightMode struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CategoryKey string    `json:"category_key" gorm:"size:191;uniqueIndex:idx_weight_mode_item"`
	ItemKey     string    `json:"item_key" gorm:"size:191;uniqueIndex:idx_weight_mode_item"`
	Mode        string    `json:"mode" gorm:"size:20"`
	CreatedAt   time.Time `json:"created_at"`
}

func ValidWeightMode(mode string) bool {
	return mode == WeightModeShared || mode == WeightModePerSubItem
}
