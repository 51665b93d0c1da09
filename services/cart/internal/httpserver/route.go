package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
)

type Deps struct {
	CartHandler *CartHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
	})

	e.Use(identity.FromHeaders())

	cart := e.Group("", identity.Require())
	cart.GET("/", d.CartHandler.GetCart)
	cart.POST("/", d.CartHandler.AddItem)
	cart.PATCH("/:itemID", d.CartHandler.UpdateItem)
	cart.DELETE("/:itemID", d.CartHandler.RemoveItem)
	cart.DELETE("/", d.CartHandler.ClearCart)
}
