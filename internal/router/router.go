package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/config"
	"github.com/thriftshop/storefront/internal/app/controller"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	cartController     *controller.CartController
	wishlistController *controller.WishlistController
	orderController    *controller.OrderController
	shippingController *controller.ShippingController
	uploadController   *controller.UploadController
	eventsController   *controller.EventsController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	wishlistController *controller.WishlistController,
	orderController *controller.OrderController,
	shippingController *controller.ShippingController,
	uploadController *controller.UploadController,
	eventsController *controller.EventsController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		cartController:     cartController,
		wishlistController: wishlistController,
		orderController:    orderController,
		shippingController: shippingController,
		uploadController:   uploadController,
		eventsController:   eventsController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/profile", r.authMiddleware.Authenticate(), r.authController.GetProfile)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/filters", r.productController.GetFilterOptions)
			products.GET("/:slug", r.productController.GetProduct)
		}
		v1.GET("/brands", r.productController.ListBrands)
		v1.GET("/categories", r.productController.ListCategories)

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:id", r.cartController.RemoveCartItem)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.GetWishlist)
			wishlist.POST("/:product_id", r.wishlistController.AddToWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
		}

		orders := v1.Group("/orders")
		{
			// guests pay and look up orders without an account
			orders.POST("/guest", r.orderController.CreateGuestOrder)
			orders.POST("/verify-payment", r.orderController.VerifyPayment)
			orders.GET("/pending", r.orderController.GetPendingOrder)

			orders.GET("", r.authMiddleware.Authenticate(), r.orderController.ListOrders)
			orders.POST("/payment", r.authMiddleware.Authenticate(), r.orderController.CreatePaymentOrder)
		}

		shipping := v1.Group("/shipping")
		{
			shipping.GET("/methods", r.shippingController.ListMethods)
			shipping.POST("/calculate", r.shippingController.Calculate)
		}

		v1.GET("/events", r.authMiddleware.Authenticate(), r.eventsController.Subscribe)

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/products", r.productController.CreateProduct)
			admin.POST("/uploads/presign", r.uploadController.PresignProductImage)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
