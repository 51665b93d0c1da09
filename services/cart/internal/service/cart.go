package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/cart/internal/models"
	"github.com/raceparts/raceparts/services/cart/internal/repo"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

type CartService struct {
	Repo *repo.GormRepo
}

type Cart struct {
	Items    []repo.CartLine `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	lines, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return &Cart{Items: lines, Subtotal: subtotal}, nil
}

func (s *CartService) AddToCart(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("product_id is required: %w", ErrValidation)
	}
	if quantity == 0 {
		quantity = 1
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.Repo.AddToCart(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID, quantity uint) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("a valid quantity is required: %w", ErrValidation)
	}

	item, err := s.Repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	err := s.Repo.RemoveItem(ctx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cart item: %w", ErrNotFound)
	}
	return err
}

func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}
