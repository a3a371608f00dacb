package service

import (
	"errors"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

var ErrWishlistItemNotFound = errors.New("item not in wishlist")

type WishlistSnapshot struct {
	Items []model.WishlistItem `json:"items"`
	Count int                  `json:"count"`
}

type WishlistService interface {
	GetWishlist(userID uint) (*WishlistSnapshot, error)
	// AddToWishlist reports created=false when the product was already saved.
	AddToWishlist(userID, productID uint) (item *model.WishlistItem, created bool, err error)
	RemoveFromWishlist(userID, productID uint) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) GetWishlist(userID uint) (*WishlistSnapshot, error) {
	items, err := s.wishlistRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch wishlist", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if items == nil {
		items = []model.WishlistItem{}
	}
	return &WishlistSnapshot{Items: items, Count: len(items)}, nil
}

func (s *wishlistService) AddToWishlist(userID, productID uint) (*model.WishlistItem, bool, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrProductNotFound
		}
		return nil, false, err
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check wishlist", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, false, err
	}

	item := &model.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlistRepo.Create(item); err != nil {
		logger.Error("Failed to add to wishlist", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, false, err
	}
	item.Product = *product

	logger.Info("Product added to wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return item, true, nil
}

func (s *wishlistService) RemoveFromWishlist(userID, productID uint) error {
	removed, err := s.wishlistRepo.Delete(userID, productID)
	if err != nil {
		logger.Error("Failed to remove from wishlist", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}
	if !removed {
		return ErrWishlistItemNotFound
	}

	logger.Info("Product removed from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}
