package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/service"
	apperrors "github.com/thriftshop/storefront/internal/errors"
	"github.com/thriftshop/storefront/internal/middleware"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/util"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists, "An account with this email already exists"},
	{util.ErrWeakPassword, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Password must be between 8 and 72 characters"},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "User not found"},
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound, "Product not found"},
	{service.ErrProductUnavailable, http.StatusBadRequest, apperrors.ProductUnavailable, "This item is no longer available"},
	{service.ErrInvalidProduct, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid product"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.CartInvalidQuantity, "Quantity must be between 1 and 100"},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "Cart item not found"},
	{service.ErrCartEmpty, http.StatusBadRequest, apperrors.CartEmpty, "Your cart is empty"},
	{service.ErrWishlistItemNotFound, http.StatusNotFound, apperrors.WishlistItemNotFound, "Item not in wishlist"},
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "Order not found"},
	{service.ErrOrderAlreadyPaid, http.StatusConflict, apperrors.OrderAlreadyPaid, "Order has already been paid"},
	{service.ErrOrderStockUnavailable, http.StatusConflict, apperrors.ResourceConflict, "An item in this order sold out before payment completed"},
	{service.ErrSignatureMismatch, http.StatusBadRequest, apperrors.PaymentSignatureMismatch, "Payment could not be verified"},
	{service.ErrPaymentGateway, http.StatusBadGateway, apperrors.PaymentGatewayError, "Payment provider is unavailable"},
	{service.ErrGuestEmailRequired, http.StatusBadRequest, apperrors.ValidationRequired, "Email is required for guest checkout"},
	{service.ErrShippingMethodNotFound, http.StatusNotFound, apperrors.ShippingMethodNotFound, "Shipping method not found"},
	{service.ErrShippingZoneNotFound, http.StatusBadRequest, apperrors.ShippingZoneNotFound, "We do not ship to this address"},
}

// respondWithServiceError writes the response for an error returned by a
// service. Unknown errors are logged and parsed as database errors.
func respondWithServiceError(c *gin.Context, log *logger.Logger, err error, action string) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		apperrors.BadRequest(c, apperrors.CartInsufficientStock, stockErr.Error())
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn("Request rejected", map[string]interface{}{
				"action": action,
				"code":   m.code,
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
}

func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
	}
	return userID, ok
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// flexID is an id sent either as a JSON number or a numeric string.
type flexID uint

func (id *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}
	*id = flexID(v)
	return nil
}
