package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/internal/db"
	"github.com/thriftshop/storefront/internal/middleware"
	"github.com/thriftshop/storefront/pkg/payment/razorpay"
	"github.com/thriftshop/storefront/pkg/util"
	"gorm.io/gorm"
)

const (
	testJWTSecret     = "test-secret"
	testGatewaySecret = "gateway-secret"
)

type stubGateway struct{ n int }

func (g *stubGateway) KeyID() string    { return "rzp_test_key" }
func (g *stubGateway) Currency() string { return "INR" }

func (g *stubGateway) CreateOrder(_ context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error) {
	g.n++
	return &razorpay.Order{ID: fmt.Sprintf("order_%d", g.n), Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.Sign(testGatewaySecret, orderID, paymentID) == signature
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedReferenceData(testDB))

	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	blacklist := middleware.NewMemoryBlacklist()

	authService := service.NewAuthService(userRepo, blacklist, testJWTSecret, time.Hour)
	shippingService := service.NewShippingService(repository.NewShippingRepository(testDB), productRepo)
	orderService := service.NewOrderService(
		repository.NewOrderRepository(testDB), cartRepo, productRepo, userRepo,
		shippingService, &stubGateway{}, nil, nil,
	)

	authCtrl := NewAuthController(authService)
	productCtrl := NewProductController(service.NewProductService(productRepo, repository.NewTaxonomyRepository(testDB)))
	cartCtrl := NewCartController(service.NewCartService(cartRepo, productRepo, nil))
	wishlistCtrl := NewWishlistController(service.NewWishlistService(repository.NewWishlistRepository(testDB), productRepo))
	orderCtrl := NewOrderController(orderService)
	shippingCtrl := NewShippingController(shippingService)

	authMW := middleware.NewAuthMiddleware(testJWTSecret, blacklist)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())

	r.POST("/auth/register", authCtrl.Register)
	r.POST("/auth/login", authCtrl.Login)
	r.GET("/auth/profile", authMW.Authenticate(), authCtrl.GetProfile)
	r.POST("/auth/logout", authMW.Authenticate(), authCtrl.Logout)

	r.GET("/products", productCtrl.ListProducts)
	r.GET("/products/filters", productCtrl.GetFilterOptions)
	r.GET("/products/:slug", productCtrl.GetProduct)
	r.GET("/brands", productCtrl.ListBrands)
	r.GET("/categories", productCtrl.ListCategories)
	r.POST("/admin/products", authMW.Authenticate(), authMW.RequireRole(model.RoleAdmin), productCtrl.CreateProduct)

	cart := r.Group("/cart", authMW.Authenticate())
	cart.GET("", cartCtrl.GetCart)
	cart.DELETE("", cartCtrl.ClearCart)
	cart.POST("/items", cartCtrl.AddToCart)
	cart.PUT("/items/:id", cartCtrl.UpdateCartItem)
	cart.DELETE("/items/:id", cartCtrl.RemoveCartItem)

	wishlist := r.Group("/wishlist", authMW.Authenticate())
	wishlist.GET("", wishlistCtrl.GetWishlist)
	wishlist.POST("/:product_id", wishlistCtrl.AddToWishlist)
	wishlist.DELETE("/:product_id", wishlistCtrl.RemoveFromWishlist)

	r.POST("/orders/payment", authMW.Authenticate(), orderCtrl.CreatePaymentOrder)
	r.POST("/orders/guest", orderCtrl.CreateGuestOrder)
	r.POST("/orders/verify-payment", orderCtrl.VerifyPayment)
	r.GET("/orders/pending", orderCtrl.GetPendingOrder)
	r.GET("/orders", authMW.Authenticate(), orderCtrl.ListOrders)

	r.GET("/shipping/methods", shippingCtrl.ListMethods)
	r.POST("/shipping/calculate", shippingCtrl.Calculate)

	return &testServer{router: r, db: testDB, auth: authService}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	_, token, err := s.auth.Register(email, "secret123", "Shopper")
	require.NoError(t, err)
	return token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token := s.signUp(t, "admin@example.com")
	require.NoError(t, s.db.Model(&model.User{}).Where("email = ?", "admin@example.com").Update("role", model.RoleAdmin).Error)
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	admin, err := util.GenerateToken(claims.UserID, claims.Email, string(model.RoleAdmin), testJWTSecret, time.Hour)
	require.NoError(t, err)
	return admin
}

func (s *testServer) product(t *testing.T, title string, price float64, quantity int) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:       title,
		Slug:        util.Slugify(title),
		Price:       price,
		Quantity:    quantity,
		IsAvailable: quantity > 0,
		Size:        "M",
		Condition:   model.ConditionGood,
	}
	require.NoError(t, s.db.Create(p).Error)
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, w)["error"].(string)
	return code
}
