package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductCondition string

const (
	ConditionNewWithTags ProductCondition = "new_with_tags"
	ConditionExcellent   ProductCondition = "excellent"
	ConditionGood        ProductCondition = "good"
	ConditionFair        ProductCondition = "fair"
)

type ProductGender string

const (
	GenderMen    ProductGender = "men"
	GenderWomen  ProductGender = "women"
	GenderUnisex ProductGender = "unisex"
)

type Product struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	Title         string           `gorm:"not null" json:"title"`
	Slug          string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string           `gorm:"type:text" json:"description"`
	BrandID       *uint            `gorm:"index" json:"-"`
	CategoryID    *uint            `gorm:"index" json:"-"`
	Size          string           `gorm:"type:varchar(20);index" json:"size"`       // S, M, L, 32x30 ...
	Color         string           `gorm:"type:varchar(50)" json:"color"`
	Material      string           `gorm:"type:varchar(50)" json:"material"`
	Era           string           `gorm:"type:varchar(20)" json:"era"`              // 70s, 80s, y2k
	Gender        ProductGender    `gorm:"type:varchar(20)" json:"gender"`
	Condition     ProductCondition `gorm:"type:varchar(20)" json:"condition"`
	Price         float64          `gorm:"not null" json:"price"`
	OriginalPrice float64          `json:"original_price,omitempty"`                 // retail price when new
	IsAvailable   bool             `gorm:"index" json:"is_available"`
	IsFeatured    bool             `gorm:"index" json:"is_featured"`
	Quantity      int              `gorm:"not null" json:"quantity"`                 // units on hand, usually 1
	Tags          StringList       `gorm:"type:text" json:"tags,omitempty"`
	PrimaryImage  string           `json:"primary_image"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`

	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// InStock reports whether n more units can be sold.
func (p *Product) InStock(n int) bool {
	return p.IsAvailable && p.Quantity >= n
}
