package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/respond"
	"github.com/raceparts/raceparts/pkg/tokens"
)

// AttachIdentity verifies the jwt cookie when present and threads the caller
// identity through the request context. A missing or invalid token leaves the
// request anonymous; rejection is the guard stage's job, not this one's.
func AttachIdentity(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(tokens.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := tokens.ClaimsFromToken(cookie.Value, secret)
			if err != nil || claims == nil {
				return next(c)
			}

			id := identity.Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			}
			req := c.Request().WithContext(identity.IntoContext(c.Request().Context(), id))
			c.SetRequest(req)
			return next(c)
		}
	}
}

// RequireIdentity short-circuits protected routes before the proxy stage runs;
// the upstream is never called for anonymous requests.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := identity.FromContext(c.Request().Context()); !ok {
				return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
			}
			return next(c)
		}
	}
}
