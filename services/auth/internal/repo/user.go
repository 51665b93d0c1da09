package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/auth/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) Create(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) Update(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}
