package loggingmw

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceparts/raceparts/pkg/identity"
)

func newLoggedEcho(buf *bytes.Buffer) *echo.Echo {
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.Use(identity.FromHeaders())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func TestRequestLogger_IncludesVerifiedUser(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedEcho(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(identity.HeaderUserID, "42")
	req.Header.Set(identity.HeaderUserEmail, "u@example.com")
	req.Header.Set(identity.HeaderUserRole, "customer")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"user_id":42`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestRequestLogger_AnonymousRequestHasNoUser(t *testing.T) {
	var buf bytes.Buffer
	e := newLoggedEcho(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, buf.String(), "user_id")
	assert.Contains(t, buf.String(), `"path":"/ping"`)
}
