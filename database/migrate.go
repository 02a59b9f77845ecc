package database

import (
	"jewelstock/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ThresholdDoc{},
		&models.WeightMode{},
		&models.InventoryStock{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditEvent{},
	)
}
