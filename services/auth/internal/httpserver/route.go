package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
)

type Deps struct {
	AuthHandler *AuthHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
	})

	e.Use(identity.FromHeaders())

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	authed := e.Group("", identity.Require())
	authed.GET("/me", d.AuthHandler.Me)
	authed.PUT("/profile", d.AuthHandler.UpdateProfile)
}
