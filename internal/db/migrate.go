package db

import (
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Brand{},
		&model.Category{},
		&model.Product{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.ShippingZone{},
		&model.ShippingMethod{},
		&model.Order{},
		&model.OrderItem{},
	}
}

// Migrate runs AutoMigrate against DB and seeds reference data.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedReferenceData(DB); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// SeedReferenceData inserts shipping zones, shipping methods, and the base
// catalog taxonomy when their tables are empty.
func SeedReferenceData(tx *gorm.DB) error {
	if err := seedShipping(tx); err != nil {
		logger.Error("Failed to seed shipping", err)
		return err
	}
	if err := seedTaxonomy(tx); err != nil {
		logger.Error("Failed to seed taxonomy", err)
		return err
	}
	return nil
}

func seedShipping(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.ShippingZone{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Shipping zones already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	zones := []model.ShippingZone{
		{Name: "Local (Delhi NCR)", Description: "Delhi, Noida, Gurgaon, Ghaziabad, Faridabad", States: model.StringList{"DL"}, BaseCost: 40, FreeShippingThreshold: 800},
		{Name: "Regional (North India)", Description: "North Indian states excluding NCR", States: model.StringList{"UP", "HR", "PB", "RJ", "JK", "HP", "UT"}, BaseCost: 60, FreeShippingThreshold: 1000},
		{Name: "South India", Description: "Southern states", States: model.StringList{"TN", "KL", "KA", "AP", "TG"}, BaseCost: 80, FreeShippingThreshold: 1200},
		{Name: "West India", Description: "Western states", States: model.StringList{"MH", "GJ", "MP", "CG", "GA"}, BaseCost: 70, FreeShippingThreshold: 1100},
		{Name: "East India", Description: "Eastern states", States: model.StringList{"WB", "BR", "JH", "OR"}, BaseCost: 75, FreeShippingThreshold: 1150},
		{Name: "North East India", Description: "North Eastern states", States: model.StringList{"AS", "AR", "MN", "ML", "MZ", "NL", "TR", "SK"}, BaseCost: 100, FreeShippingThreshold: 1500},
		{Name: "Island Territories", Description: "Andaman, Nicobar, Lakshadweep", States: model.StringList{"AN", "LD"}, BaseCost: 150, FreeShippingThreshold: 2000},
		{Name: "Rest of India", Description: "Everywhere else", BaseCost: 90, FreeShippingThreshold: 1200, IsDefault: true},
	}
	methods := []model.ShippingMethod{
		{Name: "Standard Delivery", Description: "3-5 business days", CostMultiplier: 1.0, EstimatedDays: "3-5", IsActive: true},
		{Name: "Express Delivery", Description: "2-3 business days", CostMultiplier: 1.5, EstimatedDays: "2-3", IsActive: true},
		{Name: "Premium Express", Description: "1-2 business days", CostMultiplier: 2.0, EstimatedDays: "1-2", IsActive: true},
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&zones).Error; err != nil {
			return err
		}
		if err := tx.Create(&methods).Error; err != nil {
			return err
		}
		logger.Info("Shipping reference data seeded", map[string]interface{}{
			"zones":   len(zones),
			"methods": len(methods),
		})
		return nil
	})
}

func seedTaxonomy(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	categories := []model.Category{
		{Name: "T-Shirts", Slug: "t-shirts"},
		{Name: "Shirts", Slug: "shirts"},
		{Name: "Jackets", Slug: "jackets"},
		{Name: "Knitwear", Slug: "knitwear"},
		{Name: "Denim", Slug: "denim"},
		{Name: "Dresses", Slug: "dresses"},
		{Name: "Accessories", Slug: "accessories"},
	}
	if err := tx.Create(&categories).Error; err != nil {
		return err
	}

	logger.Info("Catalog taxonomy seeded", map[string]interface{}{
		"categories": len(categories),
	})
	return nil
}
