package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raceparts/raceparts/gateway/internal/middleware"
)

type Deps struct {
	AuthURL    string
	ProductURL string
	CartURL    string
	PaymentURL string

	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

// route is one row of the static dispatch table. Every request walks the same
// pipeline: attach identity, guard (protected routes only), proxy.
type route struct {
	name      string
	prefix    string
	target    string
	protected bool
	rewrite   rewriteFunc
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "UP", "message": "API Gateway is running"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Use(ecM.Recover())
	e.Use(ecM.RequestID())
	e.Use(ecM.Secure())
	e.Use(ecM.CORSWithConfig(corsConfig(d.AllowedOrigins)))
	e.Use(middleware.AttachIdentity(d.JWTSecret))

	routes := []route{
		{name: "auth", prefix: "/api/auth", target: d.AuthURL, rewrite: stripPrefix("/api/auth")},
		{name: "products", prefix: "/api/products", target: d.ProductURL, rewrite: productsRewrite},
		{name: "cart", prefix: "/api/cart", target: d.CartURL, protected: true, rewrite: stripPrefix("/api/cart")},
		{name: "payment", prefix: "/api/payment", target: d.PaymentURL, protected: true, rewrite: stripPrefix("/api/payment")},
	}

	for _, r := range routes {
		proxy, err := newProxy(r.name, r.target, r.rewrite, d.Logger)
		if err != nil {
			return err
		}

		var mws []echo.MiddlewareFunc
		if r.protected {
			mws = append(mws, middleware.RequireIdentity())
		}
		e.Any(r.prefix, proxy, mws...)
		e.Any(r.prefix+"/*", proxy, mws...)
	}

	return nil
}

func corsConfig(allowed []string) ecM.CORSConfig {
	return ecM.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			if strings.HasPrefix(origin, "http://localhost") {
				return true, nil
			}
			for _, o := range allowed {
				if origin == o {
					return true, nil
				}
			}
			return false, nil
		},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Requested-With", echo.HeaderAccept, echo.HeaderOrigin},
	}
}

func stripPrefix(prefix string) rewriteFunc {
	return func(path string) string {
		out := strings.TrimPrefix(path, prefix)
		if out == "" {
			return "/"
		}
		return out
	}
}

// productsRewrite replays the original route table of the product service:
// categories and slug lookups live beside the /products collection.
func productsRewrite(path string) string {
	rest := strings.TrimPrefix(path, "/api/products")
	switch {
	case rest == "/categories" || strings.HasPrefix(rest, "/categories/"):
		return rest
	case strings.HasPrefix(rest, "/slug/"):
		return "/products" + rest
	case rest == "" || rest == "/":
		return "/products"
	default:
		return "/products" + rest
	}
}
