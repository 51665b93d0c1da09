package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/metrics"
	"github.com/raceparts/raceparts/services/payment/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrEmptyCart  = errors.New("empty cart")
	ErrProvider   = errors.New("payment provider")
)

// CheckoutClient is the hosted-checkout provider surface; the Stripe
// implementation lives in internal/stripeclient, tests substitute a fake.
type CheckoutClient interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

type SessionRequest struct {
	UserID uint
	Origin string
	Lines  []SessionLine
}

type SessionLine struct {
	Name string
	// UnitAmount is the price in minor currency units.
	UnitAmount int64
	Quantity   int64
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutService struct {
	DB     *gorm.DB
	Client CheckoutClient
}

// CreateSession snapshots the caller's cart into priced line items and asks
// the provider for a hosted session. Nothing local is mutated; the cart stays
// as-is until the webhook confirms payment.
func (s *CheckoutService) CreateSession(ctx context.Context, userID uint, origin string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "payment.checkout", "user_id", userID)

	if origin == "" {
		return nil, fmt.Errorf("origin is required: %w", ErrValidation)
	}

	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]SessionLine, 0, len(items))
	for _, item := range items {
		var product models.Product
		err := s.DB.WithContext(ctx).First(&product, item.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A vanished product must not sink the whole checkout.
			l.Warn("cart line skipped, product missing", "product_id", item.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}

		lines = append(lines, SessionLine{
			Name:       product.Name,
			UnitAmount: product.Price.Shift(2).IntPart(),
			Quantity:   int64(item.Quantity),
		})
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	session, err := s.Client.CreateSession(ctx, SessionRequest{
		UserID: userID,
		Origin: origin,
		Lines:  lines,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	metrics.CheckoutSessionsCreated.Inc()
	l.Info("checkout session created", "session_id", session.ID, "lines", len(lines))
	return session, nil
}

// MetadataUserID formats the user id the way the provider round-trips it
// through session metadata.
func MetadataUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
