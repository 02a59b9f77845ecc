package database

import (
	"log"

	"jewelstock/models"

	"gorm.io/gorm"
)

// SeedDemo inserts a small jewelry catalog for local development:
// a threshold tree, a shared weight schema and some starting stock.
// It only runs against an empty database.
func SeedDemo(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.ThresholdDoc{}).Count(&count).Error; err != nil {
		log.Printf("demo seed skipped: %v", err)
		return
	}
	if count > 0 {
		return
	}

	docs := []models.ThresholdDoc{
		{
			CategoryKey: "Rings",
			Payload:     `{"Band":{"Classic":{"2g":10,"4g":6},"Twisted":{"2g":8}},"Signet":{"default":{"6g":4}}}`,
		},
		{
			CategoryKey: "Necklaces",
			Payload:     `{"Chain":{"Curb":{"10g":5,"20g":3}}}`,
		},
	}
	for _, doc := range docs {
		if err := db.Create(&doc).Error; err != nil {
			log.Printf("demo seed: threshold doc %s: %v", doc.CategoryKey, err)
		}
	}

	modes := []models.WeightMode{
		{CategoryKey: "Rings", ItemKey: "Band", Mode: models.WeightModeShared},
		{CategoryKey: "Necklaces", ItemKey: "Chain", Mode: models.WeightModePerSubItem},
	}
	for _, m := range modes {
		if err := db.Create(&m).Error; err != nil {
			log.Printf("demo seed: weight mode %s/%s: %v", m.CategoryKey, m.ItemKey, err)
		}
	}

	stock := []models.InventoryStock{
		{CategoryKey: "Rings", ItemKey: "Band", SubItemKey: "Classic", WeightKey: "2g", Qty: 4},
		{CategoryKey: "Rings", ItemKey: "Band", SubItemKey: "Classic", WeightKey: "4g", Qty: 7},
		{CategoryKey: "Rings", ItemKey: "Signet", SubItemKey: "default", WeightKey: "6g", Qty: 1},
		{CategoryKey: "Necklaces", ItemKey: "Chain", SubItemKey: "Curb", WeightKey: "10g", Qty: 2},
	}
	for _, s := range stock {
		if err := db.Create(&s).Error; err != nil {
			log.Printf("demo seed: stock %s/%s/%s/%s: %v",
				s.CategoryKey, s.ItemKey, s.SubItemKey, s.WeightKey, err)
		}
	}

	log.Println("demo data seeded")
}
