package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raceparts/raceparts/pkg/identity"
	"github.com/raceparts/raceparts/pkg/logging"
	"github.com/raceparts/raceparts/pkg/tokens"
)

var testSecret = []byte("gateway-test-secret")

type upstream struct {
	srv   *httptest.Server
	calls int64

	lastPath    string
	lastUserID  string
	lastEmail   string
	lastRole    string
	lastHasUser bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&u.calls, 1)
		u.lastPath = r.URL.Path
		u.lastUserID = r.Header.Get(identity.HeaderUserID)
		u.lastEmail = r.Header.Get(identity.HeaderUserEmail)
		u.lastRole = r.Header.Get(identity.HeaderUserRole)
		u.lastHasUser = u.lastUserID != ""
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newGateway(t *testing.T, auth, products, cart, payment *upstream) *echo.Echo {
	t.Helper()
	e := echo.New()
	err := Register(e, &Deps{
		AuthURL:    auth.srv.URL,
		ProductURL: products.srv.URL,
		CartURL:    cart.srv.URL,
		PaymentURL: payment.srv.URL,
		JWTSecret:  testSecret,
		Logger:     logging.New("error"),
	})
	require.NoError(t, err)
	return e
}

func signTestToken(t *testing.T, userID uint, email, role string) string {
	t.Helper()
	token, err := tokens.Sign(tokens.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)
	require.NoError(t, err)
	return token
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)

	assert.EqualValues(t, 0, atomic.LoadInt64(&cart.calls), "upstream must not be called")
}

func TestProtectedRouteExpiredToken(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	expired, err := tokens.Sign(tokens.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/create-checkout-session", nil)
	req.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: expired})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 0, atomic.LoadInt64(&payment.calls))
}

func TestProtectedRouteForwardsIdentityHeaders(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: signTestToken(t, 7, "driver@raceparts.dev", "customer")})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, atomic.LoadInt64(&cart.calls))
	assert.Equal(t, "/", cart.lastPath)
	assert.Equal(t, "7", cart.lastUserID)
	assert.Equal(t, "driver@raceparts.dev", cart.lastEmail)
	assert.Equal(t, "customer", cart.lastRole)
}

func TestInvalidTokenIsAnonymousOnPublicRoute(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, atomic.LoadInt64(&products.calls))
	assert.False(t, products.lastHasUser)
}

func TestClientIdentityHeadersAreStripped(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(identity.HeaderUserID, "999")
	req.Header.Set(identity.HeaderUserRole, "admin")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, products.lastHasUser, "spoofed identity headers must not reach the upstream")
	assert.Empty(t, products.lastRole)
}

func TestUpstreamUnreachableReturnsBadGateway(t *testing.T) {
	auth, products, payment := newUpstream(t), newUpstream(t), newUpstream(t)
	// A closed server makes every dial fail immediately.
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		AuthURL:    auth.srv.URL,
		ProductURL: products.srv.URL,
		CartURL:    deadURL,
		PaymentURL: payment.srv.URL,
		JWTSecret:  testSecret,
		Logger:     logging.New("error"),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: signTestToken(t, 1, "a@b.c", "customer")})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestProductsRewrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/api/products", "/products"},
		{"/api/products/", "/products"},
		{"/api/products/categories", "/categories"},
		{"/api/products/slug/brake-pads", "/products/slug/brake-pads"},
		{"/api/products/42", "/products/42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, productsRewrite(tt.in), "path %s", tt.in)
	}
}

func TestHealth(t *testing.T) {
	auth, products, cart, payment := newUpstream(t), newUpstream(t), newUpstream(t), newUpstream(t)
	e := newGateway(t, auth, products, cart, payment)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UP"`)
}
