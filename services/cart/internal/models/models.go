package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                              json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_product;not null"   json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_user_product;not null"   json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"              json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Product is a read model over the catalog's table; the cart service only
// joins it for names and prices and never writes it.
type Product struct {
	ID    uint            `gorm:"primaryKey" json:"id"`
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	Price decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
}

func (Product) TableName() string {
	return "products"
}
