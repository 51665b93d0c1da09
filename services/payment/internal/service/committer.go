package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/metrics"
	"github.com/raceparts/raceparts/services/payment/internal/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductMissing    = errors.New("product missing")
	// ErrAlreadyProcessed means this payment reference has committed before;
	// the delivery is a replay and a no-op.
	ErrAlreadyProcessed = errors.New("payment already processed")
)

type OrderCreatedEvent struct {
	Type        string `json:"type"`
	OrderID     uint   `json:"order_id"`
	OrderUUID   string `json:"order_uuid"`
	UserID      uint   `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

// Committer turns a paid checkout into an order, exactly once per payment
// reference.
type Committer struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

// Commit materializes an order from the user's current cart in a single
// transaction: order insert, item inserts, conditional stock decrements, cart
// clear. Any failure rolls the whole thing back and leaves the cart intact.
//
// The total is computed here from current cart contents; amounts reported by
// the provider are never trusted.
func (cm *Committer) Commit(ctx context.Context, userID uint, paymentRef, shippingAddress string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.commit", "user_id", userID, "payment_ref", paymentRef)

	if paymentRef == "" {
		return nil, fmt.Errorf("payment reference is required: %w", ErrValidation)
	}

	var order models.Order
	err := cm.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		productIDs := make([]uint, len(items))
		for i, item := range items {
			productIDs[i] = item.ProductID
		}
		var products []models.Product
		if err := tx.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return err
		}
		priceByID := make(map[uint]decimal.Decimal, len(products))
		for _, p := range products {
			priceByID[p.ID] = p.Price
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			price, ok := priceByID[item.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrProductMissing)
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			orderItems = append(orderItems, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     price,
			})
		}

		order = models.Order{
			UserID:           userID,
			TotalAmount:      total,
			Status:           models.OrderStatusPaid,
			PaymentReference: paymentRef,
			ShippingAddress:  shippingAddress,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_reference"}},
			DoNothing: true,
		}).Create(&order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		order.Items = orderItems

		for _, item := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
			}
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		metrics.OrderCommitFailures.WithLabelValues(commitFailureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersCommitted.Inc()
	l.Info("order committed", "order_uuid", order.UUID, "total", order.TotalAmount)

	if err := cm.Publisher.Publish(ctx, paymentRef, OrderCreatedEvent{
		Type:        "order_created",
		OrderID:     order.ID,
		OrderUUID:   order.UUID.String(),
		UserID:      userID,
		TotalAmount: order.TotalAmount.StringFixed(2),
		ItemCount:   len(order.Items),
	}); err != nil {
		// The order is committed; a lost event is log-worthy, not fatal.
		l.Error("order_created event publish failed", "error", err)
	}

	return &order, nil
}

func commitFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrAlreadyProcessed):
		return "replayed_delivery"
	case errors.Is(err, ErrProductMissing):
		return "product_missing"
	default:
		return "db_error"
	}
}
