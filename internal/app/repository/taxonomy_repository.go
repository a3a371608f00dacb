package repository

import (
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

// TaxonomyRepository reads and maintains brands and categories.
type TaxonomyRepository interface {
	ListBrands() ([]model.Brand, error)
	ListCategories() ([]model.Category, error)
	FirstOrCreateBrand(name, slug string) (*model.Brand, error)
	FirstOrCreateCategory(name, slug string) (*model.Category, error)
}

type taxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) ListBrands() ([]model.Brand, error) {
	var brands []model.Brand
	if err := r.db.Order("name ASC").Find(&brands).Error; err != nil {
		logger.Error("Failed to list brands in database", err)
		return nil, err
	}
	return brands, nil
}

func (r *taxonomyRepository) ListCategories() ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories in database", err)
		return nil, err
	}
	return categories, nil
}

func (r *taxonomyRepository) FirstOrCreateBrand(name, slug string) (*model.Brand, error) {
	brand := model.Brand{Name: name, Slug: slug}
	if err := r.db.Where(model.Brand{Slug: slug}).FirstOrCreate(&brand).Error; err != nil {
		logger.Error("Failed to upsert brand in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &brand, nil
}

func (r *taxonomyRepository) FirstOrCreateCategory(name, slug string) (*model.Category, error) {
	category := model.Category{Name: name, Slug: slug}
	if err := r.db.Where(model.Category{Slug: slug}).FirstOrCreate(&category).Error; err != nil {
		logger.Error("Failed to upsert category in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &category, nil
}
