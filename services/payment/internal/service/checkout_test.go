package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutClient struct {
	lastReq SessionRequest
	err     error
}

func (f *fakeCheckoutClient) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &Session{ID: "cs_test_abc", URL: "https://checkout.example/cs_test_abc"}, nil
}

func TestCreateSession_BuildsLineItemsFromCart(t *testing.T) {
	gdb := newTestDB(t)
	client := &fakeCheckoutClient{}
	svc := &CheckoutService{DB: gdb, Client: client}
	ctx := context.Background()

	seedProduct(t, gdb, 1, "brake pads", "100.00", 10)
	seedProduct(t, gdb, 2, "oil filter", "49.50", 5)
	seedCartItem(t, gdb, 7, 1, 2)
	seedCartItem(t, gdb, 7, 2, 1)

	sess, err := svc.CreateSession(ctx, 7, "https://shop.example")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", sess.ID)

	assert.EqualValues(t, 7, client.lastReq.UserID)
	assert.Equal(t, "https://shop.example", client.lastReq.Origin)
	require.Len(t, client.lastReq.Lines, 2)
	assert.Equal(t, "brake pads", client.lastReq.Lines[0].Name)
	assert.EqualValues(t, 10000, client.lastReq.Lines[0].UnitAmount, "minor units")
	assert.EqualValues(t, 2, client.lastReq.Lines[0].Quantity)
	assert.EqualValues(t, 4950, client.lastReq.Lines[1].UnitAmount)
}

func TestCreateSession_RequiresOrigin(t *testing.T) {
	gdb := newTestDB(t)
	svc := &CheckoutService{DB: gdb, Client: &fakeCheckoutClient{}}

	_, err := svc.CreateSession(context.Background(), 7, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateSession_EmptyCart(t *testing.T) {
	gdb := newTestDB(t)
	svc := &CheckoutService{DB: gdb, Client: &fakeCheckoutClient{}}

	_, err := svc.CreateSession(context.Background(), 7, "https://shop.example")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSession_SkipsVanishedProducts(t *testing.T) {
	gdb := newTestDB(t)
	client := &fakeCheckoutClient{}
	svc := &CheckoutService{DB: gdb, Client: client}
	ctx := context.Background()

	seedProduct(t, gdb, 1, "brake pads", "100.00", 10)
	seedCartItem(t, gdb, 7, 1, 1)
	seedCartItem(t, gdb, 7, 99, 1)

	_, err := svc.CreateSession(ctx, 7, "https://shop.example")
	require.NoError(t, err)
	require.Len(t, client.lastReq.Lines, 1)
	assert.Equal(t, "brake pads", client.lastReq.Lines[0].Name)
}

func TestCreateSession_AllLinesVanished(t *testing.T) {
	gdb := newTestDB(t)
	svc := &CheckoutService{DB: gdb, Client: &fakeCheckoutClient{}}
	ctx := context.Background()

	seedCartItem(t, gdb, 7, 99, 1)

	_, err := svc.CreateSession(ctx, 7, "https://shop.example")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSession_ProviderError(t *testing.T) {
	gdb := newTestDB(t)
	svc := &CheckoutService{DB: gdb, Client: &fakeCheckoutClient{err: errors.New("stripe is down")}}
	ctx := context.Background()

	seedProduct(t, gdb, 1, "brake pads", "100.00", 10)
	seedCartItem(t, gdb, 7, 1, 1)

	_, err := svc.CreateSession(ctx, 7, "https://shop.example")
	assert.ErrorIs(t, err, ErrProvider)
}
