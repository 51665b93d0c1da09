package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/payment/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, userID uint, orderUUID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("uuid = ? AND user_id = ?", orderUUID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByUUID(ctx context.Context, orderUUID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("uuid = ?", orderUUID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStatus moves an order from exactly one status to another; a concurrent
// transition loses by affecting zero rows.
func (r *GormRepo) SetStatus(ctx context.Context, orderUUID uuid.UUID, from, to string) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("uuid = ? AND status = ?", orderUUID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
