package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/metrics"
	"github.com/raceparts/raceparts/pkg/respond"
	"github.com/raceparts/raceparts/services/payment/internal/service"
)

type PaymentHTTP struct {
	Checkout      *service.CheckoutService
	Committer     *service.Committer
	Orders        *service.OrderService
	WebhookSecret string
}

func (h *PaymentHTTP) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.checkout")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	var req struct {
		Origin string `json:"origin"`
	}
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Checkout.CreateSession(ctx, id.UserID, req.Origin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return respond.Error(c, http.StatusBadRequest, "Origin is required.")
		case errors.Is(err, service.ErrEmptyCart):
			return respond.Error(c, http.StatusBadRequest, "Cannot checkout with an empty cart.")
		default:
			l.Error("checkout_session_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Failed to create checkout session.")
		}
	}

	l.Info("checkout_session_created", "session_id", sess.ID)
	return respond.OK(c, http.StatusOK, sess)
}

// HandleWebhook receives checkout.session.completed events from Stripe.
// The provider calls this endpoint directly, so the signature is the
// only authentication. Anything after a verified signature answers 200
// so the provider does not retry deliveries we cannot use.
func (h *PaymentHTTP) HandleWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respond.Error(c, http.StatusBadRequest, "invalid body")
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		c.Request().Header.Get("Stripe-Signature"),
		h.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		metrics.WebhookSignatureFailures.Inc()
		l.Warn("webhook_signature_failed", "status", 400, "error", err)
		return respond.Error(c, http.StatusBadRequest, "Webhook signature verification failed.")
	}

	if event.Type == "checkout.session.completed" {
		h.handleCheckoutCompleted(c, event)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHTTP) handleCheckoutCompleted(c echo.Context, event stripe.Event) {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.webhook", "event_id", event.ID)

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		l.Error("webhook_payload_invalid", "error", err)
		return
	}

	userID, err := strconv.ParseUint(sess.Metadata["userId"], 10, 64)
	if err != nil {
		l.Error("webhook_user_id_invalid", "value", sess.Metadata["userId"])
		return
	}

	paymentRef := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentRef = sess.PaymentIntent.ID
	}

	shipping := ""
	if sess.ShippingDetails != nil {
		if raw, err := json.Marshal(sess.ShippingDetails); err == nil {
			shipping = string(raw)
		}
	}

	order, err := h.Committer.Commit(ctx, uint(userID), paymentRef, shipping)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyProcessed) {
			l.Info("webhook_replay_ignored", "payment_reference", paymentRef)
			return
		}
		l.Error("order_commit_failed", "payment_reference", paymentRef, "error", err)
		return
	}

	l.Info("order_committed", "order_uuid", order.UUID, "user_id", order.UserID, "total", order.TotalAmount)
}

func (h *PaymentHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	orders, err := h.Orders.ListOrders(ctx, id.UserID, limit, offset)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, orders)
}

func (h *PaymentHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	id, ok := identity.FromContext(ctx)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
	}

	orderUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return respond.Error(c, http.StatusNotFound, "Order not found.")
	}

	order, err := h.Orders.GetOrder(ctx, id.UserID, orderUUID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Order not found.")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server Error")
	}

	return respond.OK(c, http.StatusOK, order)
}

func (h *PaymentHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.status")

	orderUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		return respond.Error(c, http.StatusNotFound, "Order not found.")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return respond.Error(c, http.StatusBadRequest, "Status is required.")
	}

	order, err := h.Orders.UpdateStatus(ctx, orderUUID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return respond.Error(c, http.StatusNotFound, "Order not found.")
		case errors.Is(err, service.ErrConflict):
			return respond.Error(c, http.StatusConflict, "Invalid status transition.")
		default:
			l.Error("update_status_error", "status", 500, "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server Error")
		}
	}

	l.Info("order_status_updated", "order_uuid", orderUUID, "new_status", req.Status)
	return respond.OK(c, http.StatusOK, order)
}
