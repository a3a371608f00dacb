package service

import (
	"errors"
	"fmt"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidProduct     = errors.New("invalid product")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductListOptions is a catalog query. Page is 1-based.
type ProductListOptions struct {
	Filter   repository.ProductFilter
	Page     int
	PageSize int
}

type ProductPage struct {
	Results  []model.Product `json:"results"`
	Count    int64           `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions lists every facet value a shopper can currently pick.
type FilterOptions struct {
	Brands     []model.Brand    `json:"brands"`
	Categories []model.Category `json:"categories"`
	Sizes      []string         `json:"sizes"`
	Conditions []string         `json:"conditions"`
	Genders    []string         `json:"genders"`
	Materials  []string         `json:"materials"`
	Eras       []string         `json:"eras"`
	Colors     []string         `json:"colors"`
	PriceRange PriceRange       `json:"price_range"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) (*ProductPage, error)
	GetProductByID(id uint) (*model.Product, error)
	GetProductBySlug(slug string) (*model.Product, error)
	GetFilterOptions() (*FilterOptions, error)
	ListBrands() ([]model.Brand, error)
	ListCategories() ([]model.Category, error)
	CreateProduct(product *model.Product) error
}

type productService struct {
	productRepo  repository.ProductRepository
	taxonomyRepo repository.TaxonomyRepository
}

func NewProductService(productRepo repository.ProductRepository, taxonomyRepo repository.TaxonomyRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		taxonomyRepo: taxonomyRepo,
	}
}

func (s *productService) ListProducts(opts ProductListOptions) (*ProductPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	filter := opts.Filter
	filter.OnlyAvailable = true
	filter.Limit = size
	filter.Offset = (page - 1) * size

	logger.Debug("Listing products", map[string]interface{}{
		"search":    filter.Search,
		"page":      page,
		"page_size": size,
		"sort":      filter.SortBy,
	})

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}

	return &ProductPage{Results: products, Count: total, Page: page, PageSize: size}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProductBySlug(slug string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) GetFilterOptions() (*FilterOptions, error) {
	attrs, err := s.productRepo.ListAttributes()
	if err != nil {
		logger.Error("Failed to list product attributes", err)
		return nil, err
	}
	brands, err := s.taxonomyRepo.ListBrands()
	if err != nil {
		return nil, err
	}
	categories, err := s.taxonomyRepo.ListCategories()
	if err != nil {
		return nil, err
	}

	return &FilterOptions{
		Brands:     brands,
		Categories: categories,
		Sizes:      nonNil(attrs.Sizes),
		Conditions: nonNil(attrs.Conditions),
		Genders:    nonNil(attrs.Genders),
		Materials:  nonNil(attrs.Materials),
		Eras:       nonNil(attrs.Eras),
		Colors:     nonNil(attrs.Colors),
		PriceRange: PriceRange{Min: attrs.MinPrice, Max: attrs.MaxPrice},
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *productService) ListBrands() ([]model.Brand, error) {
	brands, err := s.taxonomyRepo.ListBrands()
	if err != nil {
		logger.Error("Failed to list brands", err)
		return nil, err
	}
	return brands, nil
}

func (s *productService) ListCategories() ([]model.Category, error) {
	categories, err := s.taxonomyRepo.ListCategories()
	if err != nil {
		logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

// CreateProduct fills in a unique slug when none is given. Products with
// stock are listed as available.
func (s *productService) CreateProduct(product *model.Product) error {
	if product.Title == "" || product.Price < 0 || product.Quantity < 0 {
		return ErrInvalidProduct
	}

	if product.Slug == "" {
		slug, err := s.uniqueSlug(util.Slugify(product.Title))
		if err != nil {
			return err
		}
		product.Slug = slug
	}
	if product.Quantity > 0 {
		product.IsAvailable = true
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"slug": product.Slug,
		})
		return err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func (s *productService) uniqueSlug(base string) (string, error) {
	if base == "" {
		base = "item"
	}
	slug := base
	for n := 2; ; n++ {
		_, err := s.productRepo.FindBySlug(slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
