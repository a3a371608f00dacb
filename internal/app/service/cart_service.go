package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

const (
	MinCartQuantity = 1
	MaxCartQuantity = 100
)

var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 100")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCartEmpty         = errors.New("cart is empty")
)

// InsufficientStockError carries what is left so the shopper can be told.
type InsufficientStockError struct {
	ProductID uint
	Title     string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %d unit(s) of %s are available.", e.Available, e.Title)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func insufficient(p *model.Product) error {
	available := p.Quantity
	if !p.IsAvailable || available < 0 {
		available = 0
	}
	return &InsufficientStockError{ProductID: p.ID, Title: p.Title, Available: available}
}

// CartSnapshot is a user's cart with its derived totals.
type CartSnapshot struct {
	Items      []model.CartItem `json:"items"`
	TotalItems int              `json:"total_items"`
	TotalPrice float64          `json:"total_price"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

type CartService interface {
	GetCart(userID uint) (*CartSnapshot, error)
	AddToCart(userID, productID uint, quantity int) (*model.CartItem, error)
	UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	events      EventPublisher
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	events EventPublisher,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		events:      publisherOrNop(events),
	}
}

func validQuantity(quantity int) bool {
	return quantity >= MinCartQuantity && quantity <= MaxCartQuantity
}

func (s *cartService) GetCart(userID uint) (*CartSnapshot, error) {
	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	snapshot := &CartSnapshot{Items: make([]model.CartItem, 0, len(items))}
	total := 0.0
	for _, item := range items {
		item.Price = item.Product.Price
		snapshot.TotalItems += item.Quantity
		total += item.Price * float64(item.Quantity)
		snapshot.Items = append(snapshot.Items, item)
	}
	snapshot.TotalPrice = roundCents(total)

	logger.Debug("Cart fetched", map[string]interface{}{
		"user_id":     userID,
		"lines":       len(snapshot.Items),
		"total_items": snapshot.TotalItems,
	})
	return snapshot, nil
}

func (s *cartService) loadProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return product, nil
}

// AddToCart adds quantity units, merging into an existing line for the
// same product.
func (s *cartService) AddToCart(userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		logger.Warn("Cannot add to cart: product unavailable", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrProductUnavailable
	}

	existing, err := s.cartRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	target := quantity
	if existing != nil {
		target += existing.Quantity
	}
	if target > MaxCartQuantity {
		return nil, ErrInvalidQuantity
	}
	if !product.InStock(target) {
		logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"requested":  target,
			"available":  product.Quantity,
		})
		return nil, insufficient(product)
	}

	var item *model.CartItem
	if existing != nil {
		existing.Quantity = target
		if err := s.cartRepo.Update(existing); err != nil {
			logger.Error("Failed to update cart item", err, map[string]interface{}{
				"cart_item_id": existing.ID,
			})
			return nil, err
		}
		item = existing
	} else {
		item = &model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		if err := s.cartRepo.Create(item); err != nil {
			logger.Error("Failed to create cart item", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return nil, err
		}
	}

	item.Product = *product
	item.Price = product.Price
	s.resetReminders(userID)
	s.events.PublishCartUpdated(userID)

	logger.Info("Item added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

// resetReminders restarts the abandoned cart sequence after cart activity.
func (s *cartService) resetReminders(userID uint) {
	if err := s.cartRepo.SetReminderStage(userID, model.ReminderNone); err != nil {
		logger.Warn("Failed to reset cart reminder stage", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *cartService) findOwned(userID, cartItemID uint) (*model.CartItem, error) {
	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		logger.Error("Failed to fetch cart item", err, map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return nil, err
	}
	if item.UserID != userID {
		logger.Warn("Cart item belongs to another user", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": cartItemID,
		})
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

// UpdateCartItem sets the line's quantity outright.
func (s *cartService) UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	if !validQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	item, err := s.findOwned(userID, cartItemID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(item.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.InStock(quantity) {
		return nil, insufficient(product)
	}

	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return nil, err
	}

	item.Product = *product
	item.Price = product.Price
	s.resetReminders(userID)
	s.events.PublishCartUpdated(userID)
	return item, nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	if _, err := s.findOwned(userID, cartItemID); err != nil {
		return err
	}
	if err := s.cartRepo.Delete(cartItemID); err != nil {
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return err
	}

	s.events.PublishCartUpdated(userID)
	logger.Info("Item removed from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})
	return nil
}

func (s *cartService) ClearCart(userID uint) error {
	if err := s.cartRepo.DeleteByUserID(userID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	s.events.PublishCartUpdated(userID)
	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
