package model

import (
	"time"
)

// Reminder stages for abandoned cart mail, in send order.
const (
	ReminderNone = iota
	ReminderOneHour
	ReminderOneDay
	ReminderThreeDays
)

type CartItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"-"`
	ProductID     uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`
	Price         float64   `gorm:"-" json:"price"`         // current product price, filled on read
	ReminderStage int       `gorm:"not null;default:0" json:"-"` // last abandoned cart mail sent
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
