package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/raceparts/raceparts/services/catalog/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

type ListParams struct {
	Page         int
	Size         int
	Query        string
	CategorySlug string
	Sort         string
}

type CategorySummary struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

func (p *ListParams) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = 20
	}
}

func (p ListParams) offset() int { return (p.Page - 1) * p.Size }

// ListProducts serves the SQL listing path: active products, optional
// category filter and substring match, stable sort.
func (r *GormRepo) ListProducts(ctx context.Context, params ListParams) ([]models.Product, int64, error) {
	params.normalize()

	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if params.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", params.CategorySlug)
	}
	if params.Query != "" {
		needle := "%" + strings.ToLower(params.Query) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch params.Sort {
	case "price_asc":
		q = q.Order("products.price ASC")
	case "price_desc":
		q = q.Order("products.price DESC")
	case "name":
		q = q.Order("products.name ASC")
	default:
		q = q.Order("products.created_at DESC")
	}

	var items []models.Product
	err := q.Preload("Category").
		Offset(params.offset()).Limit(params.Size).
		Find(&items).Error
	return items, total, err
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Preload("Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Preload("Category").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

// DeleteProduct retires a product without breaking order history that
// references it.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	var out []CategorySummary
	err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.is_active = ?", true).
		Group("categories.id").
		Order("categories.name ASC").
		Find(&out).Error
	return out, err
}
