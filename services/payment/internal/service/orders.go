package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/payment/internal/models"
	"github.com/raceparts/raceparts/services/payment/internal/repo"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// legal status transitions; everything else is a conflict. Orders are
// otherwise immutable once committed.
var transitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListOrders(ctx, userID, limit, offset)
}

func (s *OrderService) GetOrder(ctx context.Context, userID uint, orderUUID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, userID, orderUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Another user's order reads as missing, never as forbidden.
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, err
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderUUID uuid.UUID, to string) (*models.Order, error) {
	order, err := s.Repo.GetOrderByUUID(ctx, orderUUID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.Status, to) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", order.Status, to, ErrConflict)
	}

	if err := s.Repo.SetStatus(ctx, orderUUID, order.Status, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with another transition.
			return nil, fmt.Errorf("order status changed concurrently: %w", ErrConflict)
		}
		return nil, err
	}

	order.Status = to
	return order, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range transitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}
