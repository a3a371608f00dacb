package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/internal/middleware"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

func (ctrl *WishlistController) respondWithWishlist(c *gin.Context, status int, userID uint) {
	log := middleware.GetLoggerFromContext(c)

	wishlist, err := ctrl.wishlistService.GetWishlist(userID)
	if err != nil {
		respondWithServiceError(c, log, err, "get wishlist")
		return
	}
	c.JSON(status, wishlist)
}

// GetWishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	ctrl.respondWithWishlist(c, http.StatusOK, userID)
}

// AddToWishlist answers 201 when the product was newly saved, 200 when it
// already was.
// POST /api/v1/wishlist/:product_id
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	_, created, err := ctrl.wishlistService.AddToWishlist(userID, productID)
	if err != nil {
		respondWithServiceError(c, log, err, "add to wishlist")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctrl.respondWithWishlist(c, status, userID)
}

// RemoveFromWishlist
// DELETE /api/v1/wishlist/:product_id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.wishlistService.RemoveFromWishlist(userID, productID); err != nil {
		respondWithServiceError(c, log, err, "remove from wishlist")
		return
	}
	ctrl.respondWithWishlist(c, http.StatusOK, userID)
}
