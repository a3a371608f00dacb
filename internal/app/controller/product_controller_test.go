package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/internal/app/model"
)

func TestProductController_ListProducts(t *testing.T) {
	s := newTestServer(t)
	s.product(t, "Band Tee", 15, 1)
	s.product(t, "Suede Jacket", 120, 1)
	s.product(t, "Sold Boots", 60, 0)

	w := s.do(t, http.MethodGet, "/products?ordering=-price&page_size=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(1), body["page_size"])
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Suede Jacket", results[0].(map[string]interface{})["title"])

	w = s.do(t, http.MethodGet, "/products?max_price=20&size=m,xl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/products?min_price=50&max_price=10", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_INVALID_RANGE", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/products?min_price=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_DetailAndFilters(t *testing.T) {
	s := newTestServer(t)
	s.product(t, "Suede Jacket", 120, 1)

	w := s.do(t, http.MethodGet, "/products/suede-jacket", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Suede Jacket", decode(t, w)["title"])

	w = s.do(t, http.MethodGet, "/products/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/products/filters", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	filters := decode(t, w)
	assert.Equal(t, []interface{}{"M"}, filters["sizes"])
	assert.Equal(t, map[string]interface{}{"min": float64(120), "max": float64(120)}, filters["price_range"])

	w = s.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["categories"])

	w = s.do(t, http.MethodGet, "/brands", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "brands")
}

func TestProductController_CreateProductRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	req := CreateProductRequest{Title: "Levi's 501", Price: 45, Quantity: 1, Condition: "excellent"}

	w := s.do(t, http.MethodPost, "/admin/products", s.signUp(t, "ada@example.com"), req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.adminToken(t)
	w = s.do(t, http.MethodPost, "/admin/products", admin, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "levis-501", decode(t, w)["slug"])

	var stored model.Product
	require.NoError(t, s.db.Where("slug = ?", "levis-501").First(&stored).Error)
	assert.True(t, stored.IsAvailable)

	req.Condition = "mint"
	w = s.do(t, http.MethodPost, "/admin/products", admin, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
