package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raceparts/raceparts/pkg/identity"
)

type Deps struct {
	PaymentHandler *PaymentHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Stripe calls the webhook directly; it never passes the gateway.
	e.POST("/webhook", d.PaymentHandler.HandleWebhook)

	e.Use(identity.FromHeaders())

	authed := e.Group("", identity.Require())
	authed.POST("/create-checkout-session", d.PaymentHandler.CreateCheckoutSession)
	authed.GET("/orders", d.PaymentHandler.ListOrders)
	authed.GET("/orders/:uuid", d.PaymentHandler.GetOrder)

	admin := e.Group("", identity.Require(), identity.RequireRole(identity.RoleAdmin))
	admin.PATCH("/orders/:uuid/status", d.PaymentHandler.UpdateOrderStatus)
}
