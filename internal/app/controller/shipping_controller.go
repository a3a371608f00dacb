package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/service"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
)

type ShippingController struct {
	shippingService service.ShippingService
}

func NewShippingController(shippingService service.ShippingService) *ShippingController {
	return &ShippingController{
		shippingService: shippingService,
	}
}

type ShippingQuoteRequest struct {
	Items            []ItemQuantityRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress  model.Address         `json:"shipping_address"`
	ShippingMethodID flexID                `json:"shipping_method_id" binding:"required"`
}

// ListMethods
// GET /api/v1/shipping/methods
func (ctrl *ShippingController) ListMethods(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	methods, err := ctrl.shippingService.ListMethods()
	if err != nil {
		respondWithServiceError(c, log, err, "list shipping methods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// Calculate quotes shipping for a set of items and an address
// POST /api/v1/shipping/calculate
func (ctrl *ShippingController) Calculate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ShippingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid shipping quote request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Items and a shipping method are required")
		return
	}

	quote, err := ctrl.shippingService.QuoteItems(itemsToService(req.Items), req.ShippingAddress.State, uint(req.ShippingMethodID))
	if err != nil {
		respondWithServiceError(c, log, err, "calculate shipping")
		return
	}
	c.JSON(http.StatusOK, quote)
}
