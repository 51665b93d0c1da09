package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/cart/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// CartLine is a cart row joined with the product it references.
type CartLine struct {
	ID           uint            `json:"id"`
	ProductID    uint            `json:"product_id"`
	Quantity     uint            `json:"quantity"`
	ProductName  string          `json:"product_name"`
	ProductSlug  string          `json:"product_slug"`
	ProductPrice decimal.Decimal `json:"product_price"`
}

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.id, cart_items.product_id, cart_items.quantity, products.name AS product_name, products.slug AS product_slug, products.price AS product_price").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at DESC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AddToCart increments the quantity when the (user, product) pair exists and
// inserts otherwise, in one transaction.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

// UpdateQuantity sets an absolute quantity on a row owned by userID.
// Rows of other users are indistinguishable from missing ones.
func (r *GormRepo) UpdateQuantity(ctx context.Context, userID, itemID, quantity uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND user_id = ?", itemID, userID).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveItem(ctx context.Context, userID, itemID uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
