package repository

import (
	"time"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	Create(cartItem *model.CartItem) error
	FindByUserID(userID uint) ([]model.CartItem, error)
	FindByID(id uint) (*model.CartItem, error)
	FindByUserAndProduct(userID, productID uint) (*model.CartItem, error)
	Update(cartItem *model.CartItem) error
	Delete(id uint) error
	DeleteByUserID(userID uint) error
	FindUserIDsByProduct(productID uint) ([]uint, error)
	FindIdleUserIDs(idleSince time.Time, belowStage int) ([]uint, error)
	SetReminderStage(userID uint, stage int) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(cartItem *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"user_id":    cartItem.UserID,
		"product_id": cartItem.ProductID,
		"quantity":   cartItem.Quantity,
	})

	if err := r.db.Omit("User", "Product").Create(cartItem).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"user_id":    cartItem.UserID,
			"product_id": cartItem.ProductID,
			"quantity":   cartItem.Quantity,
		})
		return err
	}
	if err := r.SetReminderStage(cartItem.UserID, model.ReminderNone); err != nil {
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"user_id":      cartItem.UserID,
		"product_id":   cartItem.ProductID,
	})
	return nil
}

func (r *cartRepository) FindByUserID(userID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cartItems []model.CartItem
	err := r.db.Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Brand").
		Preload("Product.Category").
		Order("id ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(cartItems),
	})
	return cartItems, nil
}

func (r *cartRepository) FindByID(id uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	if err := r.db.Preload("Product").First(&cartItem, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
				"cart_item_id": id,
			})
		}
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) FindByUserAndProduct(userID, productID uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&cartItem).Error
	if err != nil {
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) Update(cartItem *model.CartItem) error {
	logger.Debug("Updating cart item in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"quantity":     cartItem.Quantity,
	})

	cartItem.ReminderStage = model.ReminderNone
	if err := r.db.Omit("User", "Product").Save(cartItem).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": cartItem.ID,
		})
		return err
	}
	// Activity on one line restarts the reminder sequence for the whole cart.
	return r.SetReminderStage(cartItem.UserID, model.ReminderNone)
}

func (r *cartRepository) Delete(id uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteByUserID(userID uint) error {
	logger.Debug("Clearing cart in database", map[string]interface{}{
		"user_id": userID,
	})

	if err := r.db.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to clear cart in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

// FindUserIDsByProduct returns every user holding productID in their cart.
func (r *cartRepository) FindUserIDsByProduct(productID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.CartItem{}).
		Where("product_id = ?", productID).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find cart holders of product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return ids, nil
}

// FindIdleUserIDs returns users whose cart was last touched at or before
// idleSince and who have not yet been sent reminder belowStage.
func (r *cartRepository) FindIdleUserIDs(idleSince time.Time, belowStage int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.CartItem{}).
		Select("user_id").
		Group("user_id").
		Having("MAX(updated_at) <= ? AND MAX(reminder_stage) < ?", idleSince, belowStage).
		Pluck("user_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find idle carts", err, map[string]interface{}{
			"idle_since": idleSince,
			"stage":      belowStage,
		})
		return nil, err
	}
	return ids, nil
}

// SetReminderStage records a sent reminder without counting as cart activity.
func (r *cartRepository) SetReminderStage(userID uint, stage int) error {
	err := r.db.Model(&model.CartItem{}).
		Where("user_id = ?", userID).
		UpdateColumn("reminder_stage", stage).Error
	if err != nil {
		logger.Error("Failed to set cart reminder stage", err, map[string]interface{}{
			"user_id": userID,
			"stage":   stage,
		})
		return err
	}
	return nil
}
