package identity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/raceparts/raceparts/pkg/respond"
)

// Headers injected by the gateway after token verification. Downstream
// services trust these instead of re-verifying the token.
const (
	HeaderUserID    = "x-user-id"
	HeaderUserEmail = "x-user-email"
	HeaderUserRole  = "x-user-role"
)

const RoleAdmin = "admin"

type Identity struct {
	UserID uint
	Email  string
	Role   string
}

type ctxKey struct{}

func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, if one was attached.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// FromHeaders builds the identity from gateway headers and threads it through
// the request context. Requests without the headers pass through anonymous.
func FromHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderUserID)
			if raw == "" {
				return next(c)
			}
			uid, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return next(c)
			}

			id := Identity{
				UserID: uint(uid),
				Email:  c.Request().Header.Get(HeaderUserEmail),
				Role:   c.Request().Header.Get(HeaderUserRole),
			}
			req := c.Request().WithContext(IntoContext(c.Request().Context(), id))
			c.SetRequest(req)
			return next(c)
		}
	}
}

// Require rejects anonymous requests.
func Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := FromContext(c.Request().Context()); !ok {
				return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
			}
			return next(c)
		}
	}
}

// RequireRole rejects callers whose role does not match. 401 for anonymous,
// 403 for the wrong role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := FromContext(c.Request().Context())
			if !ok {
				return respond.Error(c, http.StatusUnauthorized, "Unauthorized: You must be logged in.")
			}
			if id.Role != role {
				return respond.Error(c, http.StatusForbidden, "You do not have permission to perform this action.")
			}
			return next(c)
		}
	}
}
