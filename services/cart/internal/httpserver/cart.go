package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/respond"
	"github.com/raceparts/raceparts/services/cart/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	cart, err := h.Svc.GetCart(ctx, id.UserID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.AddToCart(ctx, id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("add_item_error", "status", 400, "error", err)
			return respond.Error(c, http.StatusBadRequest, "Product ID is required.")
		}
		l.Error("add_item_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	l.Info("item_added_to_cart", "product_id", req.ProductID)
	return respond.OK(c, http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	itemID, err := parseItemID(c)
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid item id")
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItem(ctx, id.UserID, itemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return respond.Error(c, http.StatusBadRequest, "A valid quantity is required.")
		case errors.Is(err, service.ErrNotFound):
			// Another user's row answers exactly like a missing one.
			return respond.Error(c, http.StatusNotFound, "Cart item not found.")
		default:
			l.Error("update_item_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server Error")
		}
	}

	return respond.OK(c, http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	itemID, err := parseItemID(c)
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid item id")
	}

	if err := h.Svc.RemoveItem(ctx, id.UserID, itemID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Cart item not found.")
		}
		l.Error("remove_item_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.Message(c, http.StatusOK, "Item removed from cart.")
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	if err := h.Svc.ClearCart(ctx, id.UserID); err != nil {
		l.Error("clear_cart_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.Message(c, http.StatusOK, "Cart cleared.")
}

func parseItemID(c echo.Context) (uint, error) {
	v, err := strconv.ParseUint(c.Param("itemID"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
