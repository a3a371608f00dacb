package repository

import (
	"fmt"
	"strings"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortNewest    ProductSort = "-created_at"
	ProductSortOldest    ProductSort = "created_at"
	ProductSortPriceAsc  ProductSort = "price"
	ProductSortPriceDesc ProductSort = "-price"
	ProductSortTitle     ProductSort = "title"
)

// ProductFilter narrows a catalog listing. Slice fields match any of their
// values; empty slices do not filter.
type ProductFilter struct {
	Search        string
	Categories    []string // category slugs
	Brands        []string // brand slugs
	Sizes         []string
	Conditions    []string
	Materials     []string
	Eras          []string
	Colors        []string
	Genders       []string
	MinPrice      *float64
	MaxPrice      *float64
	Featured      bool
	OnlyAvailable bool
	SortBy        ProductSort
	Limit         int
	Offset        int
}

// ProductAttributes lists the distinct values each facet currently takes.
type ProductAttributes struct {
	Sizes      []string
	Conditions []string
	Genders    []string
	Materials  []string
	Eras       []string
	Colors     []string
	MinPrice   float64
	MaxPrice   float64
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindWithFilter(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	ListAttributes() (ProductAttributes, error)
	Update(product *model.Product) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"title": product.Title,
		"slug":  product.Slug,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"title": product.Title,
			"slug":  product.Slug,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func (r *productRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Product{}).
		Preload("Brand").
		Preload("Category")
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

func (r *productRepository) applyFilter(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.OnlyAvailable {
		query = query.Where("products.is_available = ?", true)
	}
	if filter.Featured {
		query = query.Where("products.is_featured = ?", true)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.ToLower(filter.Search))
		query = query.Where(
			"LOWER(products.title) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.tags) LIKE ?",
			like, like, like,
		)
	}

	columns := []struct {
		column string
		values []string
	}{
		{"products.size", filter.Sizes},
		{"products.condition", filter.Conditions},
		{"products.material", filter.Materials},
		{"products.era", filter.Eras},
		{"products.color", filter.Colors},
		{"products.gender", filter.Genders},
	}
	for _, c := range columns {
		if vals := lowered(c.values); len(vals) > 0 {
			query = query.Where("LOWER("+c.column+") IN ?", vals)
		}
	}

	if slugs := lowered(filter.Categories); len(slugs) > 0 {
		query = query.Where("products.category_id IN (?)",
			r.db.Model(&model.Category{}).Select("id").Where("slug IN ?", slugs))
	}
	if slugs := lowered(filter.Brands); len(slugs) > 0 {
		query = query.Where("products.brand_id IN (?)",
			r.db.Model(&model.Brand{}).Select("id").Where("slug IN ?", slugs))
	}

	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	return query
}

func (r *productRepository) FindWithFilter(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"search":     filter.Search,
		"categories": filter.Categories,
		"brands":     filter.Brands,
		"sizes":      filter.Sizes,
		"sort_by":    filter.SortBy,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})

	var total int64
	if err := r.applyFilter(r.db.Model(&model.Product{}), filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count products with filter", err)
		return nil, 0, err
	}

	query := r.applyFilter(r.baseQuery(), filter)
	switch filter.SortBy {
	case ProductSortOldest:
		query = query.Order("products.created_at ASC")
	case ProductSortPriceAsc:
		query = query.Order("products.price ASC")
	case ProductSortPriceDesc:
		query = query.Order("products.price DESC")
	case ProductSortTitle:
		query = query.Order("products.title ASC")
	default:
		query = query.Order("products.created_at DESC")
	}
	query = query.Order("products.id DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.baseQuery().First(&product, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.baseQuery().Where("products.id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	logger.Debug("Finding product by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var product model.Product
	if err := r.baseQuery().Where("products.slug = ?", slug).First(&product).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find product by slug in database", err, map[string]interface{}{
				"slug": slug,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) distinct(column string) ([]string, error) {
	var values []string
	err := r.db.Model(&model.Product{}).
		Where("is_available = ?", true).
		Where(column+" <> ''").
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error
	return values, err
}

func (r *productRepository) ListAttributes() (ProductAttributes, error) {
	var attrs ProductAttributes
	targets := []struct {
		column string
		dest   *[]string
	}{
		{"size", &attrs.Sizes},
		{"condition", &attrs.Conditions},
		{"gender", &attrs.Genders},
		{"material", &attrs.Materials},
		{"era", &attrs.Eras},
		{"color", &attrs.Colors},
	}
	for _, t := range targets {
		values, err := r.distinct(t.column)
		if err != nil {
			logger.Error("Failed to list product attribute", err, map[string]interface{}{
				"column": t.column,
			})
			return attrs, err
		}
		*t.dest = values
	}

	var bounds struct {
		MinPrice float64
		MaxPrice float64
	}
	if err := r.db.Model(&model.Product{}).
		Where("is_available = ?", true).
		Select("COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").
		Scan(&bounds).Error; err != nil {
		logger.Error("Failed to compute price range", err)
		return attrs, err
	}
	attrs.MinPrice = bounds.MinPrice
	attrs.MaxPrice = bounds.MaxPrice
	return attrs, nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Omit("Brand", "Category").Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product in database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	return nil
}
