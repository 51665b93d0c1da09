package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/services/catalog/internal/models"
	"github.com/raceparts/raceparts/services/catalog/internal/repo"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Searcher is the full-text index surface; the Elasticsearch implementation
// lives in internal/search. A nil Searcher drops the service to SQL matching.
type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
}

// Cache holds hot slug lookups. A nil Cache reads straight through.
type Cache interface {
	GetProduct(ctx context.Context, slug string) (*models.Product, bool)
	SetProduct(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context, slug string)
}

type ProductEvent struct {
	Type      string `json:"type"`
	ProductID uint   `json:"product_id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type ProductPage struct {
	Items []models.Product `json:"items"`
	Meta  PageMeta         `json:"meta"`
}

type ProductInput struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  *int            `json:"stock_quantity"`
	CategoryID     *uint           `json:"category_id"`
	Images         string          `json:"images"`
	Specifications string          `json:"specifications"`
}

type CatalogService struct {
	Repo      *repo.GormRepo
	Search    Searcher
	Cache     Cache
	Publisher events.Publisher
}

// ListProducts serves the catalog listing. Text queries go through the
// search index when one is wired; an index failure degrades to the SQL
// path instead of failing the request.
func (s *CatalogService) ListProducts(ctx context.Context, params repo.ListParams) (*ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Size < 1 || params.Size > 100 {
		params.Size = 20
	}

	if params.Query != "" && s.Search != nil {
		from := (params.Page - 1) * params.Size
		total, items, err := s.Search.Search(ctx, params.Query, from, params.Size)
		if err == nil {
			return newPage(items, total, params), nil
		}
		l.Warn("search index unavailable, using sql match", "error", err)
	}

	items, total, err := s.Repo.ListProducts(ctx, params)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, params), nil
}

func newPage(items []models.Product, total int64, params repo.ListParams) *ProductPage {
	size := int64(params.Size)
	return &ProductPage{
		Items: items,
		Meta: PageMeta{
			Page:       params.Page,
			Size:       params.Size,
			Total:      total,
			TotalPages: (total + size - 1) / size,
			HasPrev:    params.Page > 1,
			HasNext:    int64(params.Page)*size < total,
		},
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if s.Cache != nil {
		if p, ok := s.Cache.GetProduct(ctx, slug); ok {
			return p, nil
		}
	}

	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.SetProduct(ctx, p)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return nil, fmt.Errorf("price must be positive: %w", ErrValidation)
	}
	stock := 0
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, fmt.Errorf("stock cannot be negative: %w", ErrValidation)
		}
		stock = *in.StockQuantity
	}

	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if _, err := s.Repo.GetProductBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("slug %q already exists: %w", slug, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &models.Product{
		Name:           in.Name,
		Slug:           slug,
		Description:    in.Description,
		Price:          in.Price,
		StockQuantity:  stock,
		CategoryID:     in.CategoryID,
		Images:         in.Images,
		Specifications: in.Specifications,
		IsActive:       true,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_created", p, "")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	oldSlug := p.Slug
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Slug != "" {
		p.Slug = in.Slug
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if !in.Price.IsZero() {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("price must be positive: %w", ErrValidation)
		}
		p.Price = in.Price
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return nil, fmt.Errorf("stock cannot be negative: %w", ErrValidation)
		}
		p.StockQuantity = *in.StockQuantity
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.Images != "" {
		p.Images = in.Images
	}
	if in.Specifications != "" {
		p.Specifications = in.Specifications
	}

	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", p, oldSlug)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return err
	}

	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)
	if s.Search != nil {
		if err := s.Search.Delete(ctx, id); err != nil {
			l.Warn("search index delete failed", "error", err)
		}
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, p.Slug)
	}
	s.publish(ctx, ProductEvent{Type: "product_deleted", ProductID: id, Slug: p.Slug, Name: p.Name})
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]repo.CategorySummary, error) {
	return s.Repo.ListCategories(ctx)
}

// afterWrite propagates a create or update to the ancillary stores. None of
// them is allowed to fail the write that already committed.
func (s *CatalogService) afterWrite(ctx context.Context, eventType string, p *models.Product, oldSlug string) {
	l := logging.FromContext(ctx).With("svc", "catalog.write", "product_id", p.ID)

	if s.Search != nil {
		if err := s.Search.Index(ctx, p); err != nil {
			l.Warn("search index update failed", "error", err)
		}
	}
	if s.Cache != nil {
		if oldSlug != "" && oldSlug != p.Slug {
			s.Cache.Invalidate(ctx, oldSlug)
		}
		s.Cache.Invalidate(ctx, p.Slug)
	}
	s.publish(ctx, ProductEvent{Type: eventType, ProductID: p.ID, Slug: p.Slug, Name: p.Name})
}

func (s *CatalogService) publish(ctx context.Context, evt ProductEvent) {
	if err := s.Publisher.Publish(ctx, strconv.FormatUint(uint64(evt.ProductID), 10), evt); err != nil {
		logging.FromContext(ctx).Error("product event publish failed", "type", evt.Type, "error", err)
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
