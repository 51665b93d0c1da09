package stripeclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/raceparts/raceparts/services/payment/internal/service"
)

// stripeStub stands in for the Stripe API and records the form-encoded
// request body of the last session create call.
type stripeStub struct {
	srv      *httptest.Server
	lastForm url.Values
}

func newStripeStub(t *testing.T) *stripeStub {
	t.Helper()

	stub := &stripeStub{}
	stub.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		stub.lastForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","url":"https://checkout.stripe.com/c/pay/cs_test_123"}`))
	}))
	t.Cleanup(stub.srv.Close)
	return stub
}

func newTestClient(stub *stripeStub) *Client {
	api := &client.API{}
	api.Init("sk_test_key", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:           stripe.String(stub.srv.URL),
			LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelError},
		}),
	})
	return &Client{api: api}
}

func TestCreateSession_Params(t *testing.T) {
	stub := newStripeStub(t)
	c := newTestClient(stub)

	sess, err := c.CreateSession(context.Background(), service.SessionRequest{
		UserID: 7,
		Origin: "https://shop.example",
		Lines: []service.SessionLine{
			{Name: "brake pads", UnitAmount: 10000, Quantity: 2},
			{Name: "oil filter", UnitAmount: 4950, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", sess.URL)

	form := stub.lastForm
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "https://shop.example/payment/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
	assert.Equal(t, "https://shop.example/cart", form.Get("cancel_url"))
	assert.Equal(t, "7", form.Get("metadata[userId]"))

	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "promptpay", form.Get("payment_method_types[1]"))

	assert.Equal(t, "brake pads", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "10000", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "thb", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "4950", form.Get("line_items[1][price_data][unit_amount]"))

	assert.Equal(t, "US", form.Get("shipping_address_collection[allowed_countries][0]"))
}
