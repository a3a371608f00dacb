package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/service"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type ItemQuantityRequest struct {
	ProductID flexID `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

func (r ItemQuantityRequest) toService() service.ItemQuantity {
	return service.ItemQuantity{ProductID: uint(r.ProductID), Quantity: r.Quantity}
}

func itemsToService(items []ItemQuantityRequest) []service.ItemQuantity {
	out := make([]service.ItemQuantity, 0, len(items))
	for _, it := range items {
		out = append(out, it.toService())
	}
	return out
}

type CheckoutRequest struct {
	ShippingAddress  model.Address `json:"shipping_address"`
	ShippingMethodID flexID        `json:"shipping_method_id" binding:"required"`
}

type GuestOrderRequest struct {
	Email            string                `json:"email" binding:"required,email"`
	Name             string                `json:"name"`
	Items            []ItemQuantityRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress  model.Address         `json:"shipping_address"`
	ShippingMethodID flexID                `json:"shipping_method_id" binding:"required"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// CreatePaymentOrder checks out the signed-in user's cart
// POST /api/v1/orders/payment
func (ctrl *OrderController) CreatePaymentOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err, "A shipping address and method are required")
		return
	}

	po, err := ctrl.orderService.CreatePaymentOrder(c.Request.Context(), userID, service.CheckoutInput{
		Address:          req.ShippingAddress,
		ShippingMethodID: uint(req.ShippingMethodID),
	})
	if err != nil {
		respondWithServiceError(c, log, err, "create payment order")
		return
	}
	c.JSON(http.StatusCreated, po)
}

// CreateGuestOrder checks out items without an account
// POST /api/v1/orders/guest
func (ctrl *OrderController) CreateGuestOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req GuestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid guest checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err, "Email, items, and a shipping method are required")
		return
	}

	po, err := ctrl.orderService.CreateGuestOrder(c.Request.Context(), service.GuestCheckoutInput{
		Email:            req.Email,
		Name:             req.Name,
		Items:            itemsToService(req.Items),
		Address:          req.ShippingAddress,
		ShippingMethodID: uint(req.ShippingMethodID),
	})
	if err != nil {
		respondWithServiceError(c, log, err, "create guest order")
		return
	}
	c.JSON(http.StatusCreated, po)
}

// VerifyPayment
// POST /api/v1/orders/verify-payment
func (ctrl *OrderController) VerifyPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Payment details are incomplete")
		return
	}

	order, err := ctrl.orderService.VerifyPayment(c.Request.Context(), service.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		respondWithServiceError(c, log, err, "verify payment")
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetPendingOrder looks an order up by number and buyer email
// GET /api/v1/orders/pending?order_number=&email=
func (ctrl *OrderController) GetPendingOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderNumber, email := c.Query("order_number"), c.Query("email")
	if orderNumber == "" || email == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "order_number and email are required")
		return
	}

	order, err := ctrl.orderService.GetPendingOrder(orderNumber, email)
	if err != nil {
		respondWithServiceError(c, log, err, "get pending order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders
// GET /api/v1/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListUserOrders(userID)
	if err != nil {
		respondWithServiceError(c, log, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}
