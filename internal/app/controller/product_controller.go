package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/internal/app/service"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

var productOrderings = map[string]repository.ProductSort{
	"-created_at": repository.ProductSortNewest,
	"newest":      repository.ProductSortNewest,
	"created_at":  repository.ProductSortOldest,
	"price":       repository.ProductSortPriceAsc,
	"-price":      repository.ProductSortPriceDesc,
	"title":       repository.ProductSortTitle,
}

// queryList reads a facet given either repeated or comma separated.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

// ListProducts
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.ProductFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Categories: queryList(c, "category"),
		Brands:     queryList(c, "brand"),
		Sizes:      queryList(c, "size"),
		Conditions: queryList(c, "condition"),
		Materials:  queryList(c, "material"),
		Eras:       queryList(c, "era"),
		Colors:     queryList(c, "color"),
		Genders:    queryList(c, "gender"),
		Featured:   c.Query("featured") == "true",
		SortBy:     repository.ProductSortNewest,
	}

	var ok bool
	if filter.MinPrice, ok = queryFloat(c, "min_price"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Invalid min_price")
		return
	}
	if filter.MaxPrice, ok = queryFloat(c, "max_price"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Invalid max_price")
		return
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "min_price exceeds max_price")
		return
	}
	if sort, found := productOrderings[c.Query("ordering")]; found {
		filter.SortBy = sort
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(service.DefaultPageSize)))

	result, err := ctrl.productService.ListProducts(service.ProductListOptions{
		Filter:   filter,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondWithServiceError(c, log, err, "list products")
		return
	}

	log.Debug("Products listed", map[string]interface{}{
		"count": result.Count,
		"page":  result.Page,
	})
	c.JSON(http.StatusOK, result)
}

// GetProduct
// GET /api/v1/products/:slug
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	product, err := ctrl.productService.GetProductBySlug(c.Param("slug"))
	if err != nil {
		respondWithServiceError(c, log, err, "get product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetFilterOptions
// GET /api/v1/products/filters
func (ctrl *ProductController) GetFilterOptions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	options, err := ctrl.productService.GetFilterOptions()
	if err != nil {
		respondWithServiceError(c, log, err, "get filter options")
		return
	}
	c.JSON(http.StatusOK, options)
}

// ListBrands
// GET /api/v1/brands
func (ctrl *ProductController) ListBrands(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	brands, err := ctrl.productService.ListBrands()
	if err != nil {
		respondWithServiceError(c, log, err, "list brands")
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// ListCategories
// GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.productService.ListCategories()
	if err != nil {
		respondWithServiceError(c, log, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type CreateProductRequest struct {
	Title         string   `json:"title" binding:"required"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	BrandID       *uint    `json:"brand_id"`
	CategoryID    *uint    `json:"category_id"`
	Size          string   `json:"size"`
	Color         string   `json:"color"`
	Material      string   `json:"material"`
	Era           string   `json:"era"`
	Gender        string   `json:"gender" binding:"omitempty,oneof=men women unisex"`
	Condition     string   `json:"condition" binding:"omitempty,oneof=new_with_tags excellent good fair"`
	Price         float64  `json:"price" binding:"gte=0"`
	OriginalPrice float64  `json:"original_price" binding:"gte=0"`
	IsFeatured    bool     `json:"is_featured"`
	Quantity      int      `json:"quantity" binding:"gte=0"`
	Tags          []string `json:"tags"`
	PrimaryImage  string   `json:"primary_image"`
}

// CreateProduct lists a new item (admin)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid product data")
		return
	}

	product := &model.Product{
		Title:         req.Title,
		Slug:          req.Slug,
		Description:   req.Description,
		BrandID:       req.BrandID,
		CategoryID:    req.CategoryID,
		Size:          req.Size,
		Color:         req.Color,
		Material:      req.Material,
		Era:           req.Era,
		Gender:        model.ProductGender(req.Gender),
		Condition:     model.ProductCondition(req.Condition),
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		IsFeatured:    req.IsFeatured,
		Quantity:      req.Quantity,
		Tags:          model.StringList(req.Tags),
		PrimaryImage:  req.PrimaryImage,
	}
	if err := ctrl.productService.CreateProduct(product); err != nil {
		respondWithServiceError(c, log, err, "create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}
