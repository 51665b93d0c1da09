// Package cache keeps hot product lookups out of the database. Slug reads
// dominate catalog traffic, so those are the only thing cached.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/raceparts/raceparts/services/catalog/internal/models"
)

const productTTL = 10 * time.Minute

type ProductCache struct {
	rdb *redis.Client
}

func New(addr, password string) (*ProductCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &ProductCache{rdb: rdb}, nil
}

func slugKey(slug string) string { return "product:slug:" + slug }

// GetProduct returns the cached product, or (nil, false) on miss or any
// redis error. The cache never fails a read path.
func (c *ProductCache) GetProduct(ctx context.Context, slug string) (*models.Product, bool) {
	raw, err := c.rdb.Get(ctx, slugKey(slug)).Bytes()
	if err != nil {
		return nil, false
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) SetProduct(ctx context.Context, p *models.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, slugKey(p.Slug), raw, productTTL)
}

func (c *ProductCache) Invalidate(ctx context.Context, slug string) {
	c.rdb.Del(ctx, slugKey(slug))
}

func (c *ProductCache) Close() error { return c.rdb.Close() }
