package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/respond"
	"github.com/raceparts/raceparts/services/catalog/internal/repo"
	"github.com/raceparts/raceparts/services/catalog/internal/service"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	result, err := h.Svc.ListProducts(ctx, repo.ListParams{
		Page:         page,
		Size:         size,
		Query:        c.QueryParam("q"),
		CategorySlug: c.QueryParam("category"),
		Sort:         c.QueryParam("sort"),
	})
	if err != nil {
		l.Error("list_products_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, result)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond.Error(c, http.StatusNotFound, "Product not found.")
	}

	product, err := h.Svc.GetProduct(ctx, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Product not found.")
		}
		l.Error("get_product_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, product)
}

func (h *CatalogHTTP) GetProductBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_slug")

	product, err := h.Svc.GetProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Product not found.")
		}
		l.Error("get_product_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, product)
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.categories")

	categories, err := h.Svc.ListCategories(ctx)
	if err != nil {
		l.Error("list_categories_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, categories)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create")

	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.CreateProduct(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return respond.Error(c, http.StatusBadRequest, "Name and a positive price are required.")
		case errors.Is(err, service.ErrConflict):
			return respond.Error(c, http.StatusConflict, "A product with this slug already exists.")
		default:
			l.Error("create_product_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server Error")
		}
	}

	l.Info("product_created", "product_id", product.ID, "slug", product.Slug)
	return respond.OK(c, http.StatusCreated, product)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond.Error(c, http.StatusNotFound, "Product not found.")
	}

	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.UpdateProduct(ctx, uint(id), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return respond.Error(c, http.StatusNotFound, "Product not found.")
		case errors.Is(err, service.ErrValidation):
			return respond.Error(c, http.StatusBadRequest, "Invalid product fields.")
		default:
			l.Error("update_product_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server Error")
		}
	}

	l.Info("product_updated", "product_id", product.ID)
	return respond.OK(c, http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond.Error(c, http.StatusNotFound, "Product not found.")
	}

	if err := h.Svc.DeleteProduct(ctx, uint(id)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Product not found.")
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	l.Info("product_deleted", "product_id", id)
	return respond.Message(c, http.StatusOK, "Product deleted.")
}
