package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/service"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID flexID `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// respondWithCart answers a cart request with the full cart.
func (ctrl *CartController) respondWithCart(c *gin.Context, status int, userID uint) {
	log := middleware.GetLoggerFromContext(c)

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondWithServiceError(c, log, err, "get cart")
		return
	}
	c.JSON(status, cart)
}

// GetCart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	ctrl.respondWithCart(c, http.StatusOK, userID)
}

// AddToCart adds units of a product, one unit when quantity is omitted
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A valid product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if _, err := ctrl.cartService.AddToCart(userID, uint(req.ProductID), req.Quantity); err != nil {
		respondWithServiceError(c, log, err, "add to cart")
		return
	}
	ctrl.respondWithCart(c, http.StatusCreated, userID)
}

// UpdateCartItem
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.CartInvalidQuantity, "Quantity must be between 1 and 100")
		return
	}

	if _, err := ctrl.cartService.UpdateCartItem(userID, itemID, req.Quantity); err != nil {
		respondWithServiceError(c, log, err, "update cart item")
		return
	}
	ctrl.respondWithCart(c, http.StatusOK, userID)
}

// RemoveCartItem
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(userID, itemID); err != nil {
		respondWithServiceError(c, log, err, "remove cart item")
		return
	}
	ctrl.respondWithCart(c, http.StatusOK, userID)
}

// ClearCart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondWithServiceError(c, log, err, "clear cart")
		return
	}
	ctrl.respondWithCart(c, http.StatusOK, userID)
}
