// Package search maintains the product index in Elasticsearch and serves
// full-text queries against it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/raceparts/raceparts/services/catalog/internal/models"
)

const ProductIndex = "products"

type Client struct {
	es *elasticsearch.Client
}

func NewClient(url, user, password string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return &Client{es: es}, nil
}

// Search runs a fuzzy multi_match over name and description, name weighted
// double. Returns the total hit count alongside the requested page.
func (c *Client) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(ProductIndex),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	products := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		products[i] = hit.Source
	}
	return r.Hits.Total.Value, products, nil
}

func (c *Client) Index(ctx context.Context, p *models.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}

	res, err := c.es.Index(
		ProductIndex,
		bytes.NewReader(doc),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id uint) error {
	res, err := c.es.Delete(
		ProductIndex,
		strconv.FormatUint(uint64(id), 10),
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product %d from index: %w", id, err)
	}
	defer res.Body.Close()
	// 404 means the document was never indexed; nothing to clean up.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %d from index: %s", id, res.Status())
	}
	return nil
}
