package repository

import (
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

type ShippingRepository interface {
	ListZones() ([]model.ShippingZone, error)
	ListActiveMethods() ([]model.ShippingMethod, error)
	FindMethodByID(id uint) (*model.ShippingMethod, error)
}

type shippingRepository struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepository{db: db}
}

func (r *shippingRepository) ListZones() ([]model.ShippingZone, error) {
	var zones []model.ShippingZone
	if err := r.db.Order("id ASC").Find(&zones).Error; err != nil {
		logger.Error("Failed to list shipping zones in database", err)
		return nil, err
	}
	return zones, nil
}

func (r *shippingRepository) ListActiveMethods() ([]model.ShippingMethod, error) {
	var methods []model.ShippingMethod
	if err := r.db.Where("is_active = ?", true).Order("cost_multiplier ASC, id ASC").Find(&methods).Error; err != nil {
		logger.Error("Failed to list shipping methods in database", err)
		return nil, err
	}
	return methods, nil
}

func (r *shippingRepository) FindMethodByID(id uint) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	if err := r.db.Where("is_active = ?", true).First(&method, id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}
