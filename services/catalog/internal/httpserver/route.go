package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
	})

	e.Use(identity.FromHeaders())

	e.GET("/products", d.CatalogHandler.ListProducts)
	e.GET("/products/slug/:slug", d.CatalogHandler.GetProductBySlug)
	e.GET("/products/:id", d.CatalogHandler.GetProduct)
	e.GET("/categories", d.CatalogHandler.ListCategories)

	admin := e.Group("", identity.Require(), identity.RequireRole(identity.RoleAdmin))
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
}
