package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID uint      `gorm:"index;not null" json:"user_id"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status      string          `gorm:"not null;default:pending" json:"status"`

	// PaymentReference is the provider's payment id. The unique index is the
	// idempotency key: a replayed webhook delivery cannot insert twice.
	PaymentReference string `gorm:"uniqueIndex;not null" json:"payment_reference"`

	ShippingAddress string `json:"shipping_address"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	return nil
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	OrderID   uint `gorm:"index;not null" json:"order_id"`
	ProductID uint `gorm:"not null" json:"product_id"`
	Quantity  uint `gorm:"not null;check:quantity>0" json:"quantity"`

	// Price is snapshotted at purchase time; later catalog price changes
	// never touch it.
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string { return "order_items" }

// CartItem and Product mirror the tables owned by the cart and catalog
// services; the committer reads and mutates them inside its transaction.
type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	UserID    uint `gorm:"index;not null" json:"user_id"`
	ProductID uint `gorm:"not null" json:"product_id"`
	Quantity  uint `gorm:"default:1" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }

type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
}

func (Product) TableName() string { return "products" }
