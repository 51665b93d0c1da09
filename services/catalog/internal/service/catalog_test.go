package service

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raceparts/raceparts/pkg/events"
	"github.com/raceparts/raceparts/services/catalog/internal/models"
	"github.com/raceparts/raceparts/services/catalog/internal/repo"
)

func newTestService(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Category{}, &models.Product{}))

	return &CatalogService{
		Repo:      &repo.GormRepo{DB: gdb},
		Publisher: events.Nop{},
	}, gdb
}

func intPtr(v int) *int { return &v }

func seedProduct(t *testing.T, gdb *gorm.DB, name, slug, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          name,
		Slug:          slug,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:          "Brembo Brake Pads",
		Price:         decimal.RequireFromString("129.99"),
		StockQuantity: intPtr(25),
	})
	require.NoError(t, err)

	assert.Equal(t, "brembo-brake-pads", p.Slug, "slug derived from name")
	assert.True(t, p.IsActive)
	assert.NotZero(t, p.UUID)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Price: decimal.RequireFromString("10.00")})
	assert.ErrorIs(t, err, ErrValidation, "name required")

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "free stuff"})
	assert.ErrorIs(t, err, ErrValidation, "positive price required")

	_, err = svc.CreateProduct(ctx, ProductInput{
		Name:          "negative stock",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: intPtr(-1),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedProduct(t, gdb, "Oil Filter", "oil-filter", "15.00", 10)

	_, err := svc.CreateProduct(ctx, ProductInput{
		Name:  "Oil Filter",
		Price: decimal.RequireFromString("14.00"),
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetProductBySlug_UsesCache(t *testing.T) {
	svc, gdb := newTestService(t)
	c := &fakeCache{entries: map[string]*models.Product{}}
	svc.Cache = c
	ctx := context.Background()

	seeded := seedProduct(t, gdb, "Coilovers", "coilovers", "899.00", 4)

	first, err := svc.GetProductBySlug(ctx, "coilovers")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, first.ID)
	assert.Equal(t, 1, c.sets, "miss populates the cache")

	require.NoError(t, gdb.Exec("DELETE FROM products").Error)

	second, err := svc.GetProductBySlug(ctx, "coilovers")
	require.NoError(t, err, "cache hit survives the db row")
	assert.Equal(t, seeded.ID, second.ID)
}

func TestDeleteProduct_SoftDeleteHidesFromReads(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, gdb, "Turbo Kit", "turbo-kit", "2500.00", 2)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	_, err := svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The row itself survives for order history.
	var count int64
	require.NoError(t, gdb.Model(&models.Product{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound, "second delete")
}

func TestUpdateProduct_PartialFields(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, gdb, "Exhaust", "exhaust", "400.00", 8)

	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{
		Price: decimal.RequireFromString("350.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Exhaust", updated.Name, "unset fields untouched")
	assert.Equal(t, 8, updated.StockQuantity)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("350.00")))
}

func TestListProducts_FiltersAndPaginates(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Brakes", Slug: "brakes"}
	require.NoError(t, gdb.Create(cat).Error)

	pads := seedProduct(t, gdb, "Brake Pads", "brake-pads", "100.00", 10)
	require.NoError(t, gdb.Model(pads).Update("category_id", cat.ID).Error)
	seedProduct(t, gdb, "Oil Filter", "oil-filter", "15.00", 10)
	inactive := seedProduct(t, gdb, "Old Part", "old-part", "5.00", 0)
	require.NoError(t, gdb.Model(inactive).Update("is_active", false).Error)

	page, err := svc.ListProducts(ctx, repo.ListParams{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "inactive products hidden")
	assert.EqualValues(t, 2, page.Meta.Total)

	page, err = svc.ListProducts(ctx, repo.ListParams{CategorySlug: "brakes"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "brake-pads", page.Items[0].Slug)

	page, err = svc.ListProducts(ctx, repo.ListParams{Query: "brake"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "brake-pads", page.Items[0].Slug)
}

func TestListProducts_SearchIndexFallsBackToSQL(t *testing.T) {
	svc, gdb := newTestService(t)
	svc.Search = &fakeSearcher{searchErr: errors.New("index down")}
	ctx := context.Background()

	seedProduct(t, gdb, "Brake Pads", "brake-pads", "100.00", 10)

	page, err := svc.ListProducts(ctx, repo.ListParams{Query: "brake"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestWritesKeepIndexAndEventsInSync(t *testing.T) {
	svc, _ := newTestService(t)
	idx := &fakeSearcher{}
	pub := &capturePublisher{}
	svc.Search = idx
	svc.Publisher = pub
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:  "Intercooler",
		Price: decimal.RequireFromString("650.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.indexed)

	_, err = svc.UpdateProduct(ctx, p.ID, ProductInput{Description: "front mount"})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.indexed)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Equal(t, 1, idx.deleted)

	require.Len(t, pub.events, 3)
	assert.Equal(t, "product_created", pub.events[0].Type)
	assert.Equal(t, "product_updated", pub.events[1].Type)
	assert.Equal(t, "product_deleted", pub.events[2].Type)
}

func TestListCategories_CountsActiveProducts(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Brakes", Slug: "brakes"}
	require.NoError(t, gdb.Create(cat).Error)

	pads := seedProduct(t, gdb, "Brake Pads", "brake-pads", "100.00", 10)
	require.NoError(t, gdb.Model(pads).Update("category_id", cat.ID).Error)
	retired := seedProduct(t, gdb, "Old Pads", "old-pads", "50.00", 0)
	require.NoError(t, gdb.Model(retired).
		Updates(map[string]any{"category_id": cat.ID, "is_active": false}).Error)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.EqualValues(t, 1, categories[0].ProductCount)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "brembo-brake-pads", Slugify("Brembo Brake Pads"))
	assert.Equal(t, "hks-turbo-gt-iii", Slugify("HKS Turbo (GT-III)"))
	assert.Equal(t, "oil", Slugify("  Oil!  "))
}

type fakeSearcher struct {
	indexed   int
	deleted   int
	searchErr error
}

func (f *fakeSearcher) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	return 0, nil, f.searchErr
}

func (f *fakeSearcher) Index(context.Context, *models.Product) error {
	f.indexed++
	return nil
}

func (f *fakeSearcher) Delete(context.Context, uint) error {
	f.deleted++
	return nil
}

type fakeCache struct {
	entries map[string]*models.Product
	sets    int
}

func (f *fakeCache) GetProduct(_ context.Context, slug string) (*models.Product, bool) {
	p, ok := f.entries[slug]
	return p, ok
}

func (f *fakeCache) SetProduct(_ context.Context, p *models.Product) {
	f.sets++
	f.entries[p.Slug] = p
}

func (f *fakeCache) Invalidate(_ context.Context, slug string) {
	delete(f.entries, slug)
}

type capturePublisher struct {
	events []ProductEvent
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event any) error {
	if evt, ok := event.(ProductEvent); ok {
		p.events = append(p.events, evt)
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }
