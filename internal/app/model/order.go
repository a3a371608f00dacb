package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // awaiting payment
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Address is embedded as JSON on orders.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	OrderNumber      string         `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID           *uint          `gorm:"index" json:"user_id,omitempty"` // nil for guest checkout
	Email            string         `gorm:"not null;index" json:"email"`
	Name             string         `json:"name"`
	Status           OrderStatus    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Subtotal         float64        `gorm:"not null" json:"subtotal"`
	ShippingCost     float64        `gorm:"not null;default:0" json:"shipping_cost"`
	Total            float64        `gorm:"not null" json:"total"`
	Currency         string         `gorm:"type:varchar(3)" json:"currency"`
	ShippingAddress  Address        `gorm:"serializer:json;type:text" json:"shipping_address"`
	ShippingMethodID uint           `json:"shipping_method_id"`
	GatewayOrderID   string         `gorm:"index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string         `json:"gateway_payment_id,omitempty"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem snapshots the product at purchase time.
type OrderItem struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"-"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Title     string  `gorm:"not null" json:"title"`
	Size      string  `json:"size,omitempty"`
	Price     float64 `gorm:"not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
