package repository

import (
	"errors"
	"time"

	"github.com/thriftshop/storefront/internal/app/model"
	"github.com/thriftshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

// ErrStockConflict means a unit was sold between checkout and payment.
var ErrStockConflict = errors.New("insufficient stock to fulfil order")

// StockChange describes a product whose quantity moved through an order.
type StockChange struct {
	ProductID uint
	Remaining int
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	Update(order *model.Order) error
	MarkPaid(order *model.Order, paymentID string, paidAt time.Time) ([]StockChange, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"total":        order.Total,
		"items":        len(order.Items),
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	logger.Debug("Finding order by number in database", map[string]interface{}{
		"order_number": orderNumber,
	})

	var order model.Order
	if err := r.preloadOrder().Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	if err := r.db.Omit("Items").Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

// MarkPaid records the payment, takes the sold units out of stock and empties
// the buyer's cart in one transaction. A product that can no longer cover its
// line aborts everything with ErrStockConflict.
func (r *orderRepository) MarkPaid(order *model.Order, paymentID string, paidAt time.Time) ([]StockChange, error) {
	logger.Info("Marking order paid in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"payment_id":   paymentID,
	})

	var changes []StockChange
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			res := tx.Model(&model.Product{}).
				Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				logger.Warn("Stock conflict while marking order paid", map[string]interface{}{
					"order_id":   order.ID,
					"product_id": item.ProductID,
					"quantity":   item.Quantity,
				})
				return ErrStockConflict
			}

			var product model.Product
			if err := tx.Select("id", "quantity").First(&product, item.ProductID).Error; err != nil {
				return err
			}
			remaining := product.Quantity
			if remaining == 0 {
				if err := tx.Model(&model.Product{}).Where("id = ?", item.ProductID).
					UpdateColumn("is_available", false).Error; err != nil {
					return err
				}
			}
			changes = append(changes, StockChange{ProductID: item.ProductID, Remaining: remaining})
		}

		updates := map[string]interface{}{
			"status":             model.OrderStatusPaid,
			"gateway_payment_id": paymentID,
			"paid_at":            paidAt,
		}
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		if order.UserID != nil {
			if err := tx.Where("user_id = ?", *order.UserID).Delete(&model.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStockConflict) {
			logger.Error("Failed to mark order paid in database", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
		return nil, err
	}

	order.Status = model.OrderStatusPaid
	order.GatewayPaymentID = paymentID
	order.PaidAt = &paidAt
	return changes, nil
}
