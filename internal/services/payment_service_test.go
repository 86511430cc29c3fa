package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpass/internal/services/payhere"
	"eventpass/internal/status"
)

func newPaymentFixture(t *testing.T) (*fakeStore, *PaymentService, *payhere.Client, *OrderConfirmation) {
	t.Helper()

	f := newCatalogFixture()
	gateway := payhere.New(&payhere.Config{
		MerchantID:     testMerchantID,
		MerchantSecret: testSecret,
		Sandbox:        true,
		Currency:       "LKR",
		ReturnURL:      "https://eventpass.lk/orders/return",
		CancelURL:      "https://eventpass.lk/orders/cancel",
		NotifyURL:      "https://eventpass.lk/api/v1/payments/payhere/notify",
	})
	svc := NewPaymentService(f, gateway)

	confirmation, err := NewOrderService(f).CreateOrder(context.Background(), "buyer1", CreateOrderInput{
		EventID:   "evt1",
		Selection: Selection{"tt1": 2, "tt2": 1},
		Buyer:     validBuyer(),
	})
	require.NoError(t, err)

	return f, svc, gateway, confirmation
}

func TestBuildCheckout(t *testing.T) {
	_, svc, gateway, confirmation := newPaymentFixture(t)

	params, err := svc.BuildCheckout(context.Background(), "buyer1", confirmation.OrderRef, "455.01")
	require.NoError(t, err)

	assert.Equal(t, "https://sandbox.payhere.lk/pay/checkout", params.CheckoutURL)
	assert.Equal(t, testMerchantID, params.MerchantID)
	assert.Equal(t, confirmation.OrderRef, params.OrderID)
	assert.Equal(t, "455.01", params.Amount)
	assert.Equal(t, "LKR", params.Currency)
	assert.Equal(t, gateway.GenerateHash(confirmation.OrderRef, decimal.RequireFromString("455.01"), "LKR"), params.Hash)
	assert.Equal(t, "General x2, VIP x1", params.Items)
	assert.Equal(t, "Nadia Perera", params.FirstName)
	assert.Equal(t, "nadia@example.com", params.Email)
}

func TestBuildCheckoutAcceptsEquivalentAmounts(t *testing.T) {
	_, svc, _, confirmation := newPaymentFixture(t)

	// Same value, different rendering.
	_, err := svc.BuildCheckout(context.Background(), "buyer1", confirmation.OrderRef, "455.010")
	assert.NoError(t, err)
}

func TestBuildCheckoutAmountMismatch(t *testing.T) {
	_, svc, _, confirmation := newPaymentFixture(t)

	_, err := svc.BuildCheckout(context.Background(), "buyer1", confirmation.OrderRef, "400.00")
	require.Error(t, err)
	require.True(t, status.IsAmountMismatch(err))
	assert.EqualError(t, err, "amount mismatch: given 400.00, order total is 455.01")
}

func TestBuildCheckoutRejections(t *testing.T) {
	f, svc, _, confirmation := newPaymentFixture(t)
	ctx := context.Background()

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.BuildCheckout(ctx, "buyer1", "EP-unknown", "455.01")
		assert.ErrorIs(t, err, status.ErrPurchaseNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := svc.BuildCheckout(ctx, "someone-else", confirmation.OrderRef, "455.01")
		assert.ErrorIs(t, err, status.ErrNotOwner)
	})

	t.Run("amount is not a number", func(t *testing.T) {
		_, err := svc.BuildCheckout(ctx, "buyer1", confirmation.OrderRef, "free")
		assert.True(t, status.IsValidation(err))
	})

	t.Run("not pending anymore", func(t *testing.T) {
		gateway := payhere.New(&payhere.Config{MerchantID: testMerchantID, MerchantSecret: testSecret, Currency: "LKR"})
		reconcile := NewReconcileService(f, gateway, nil, 30*time.Minute)
		_, err := reconcile.Complete(ctx, confirmation.OrderRef, "320025300")
		require.NoError(t, err)

		_, err = svc.BuildCheckout(ctx, "buyer1", confirmation.OrderRef, "455.01")
		assert.True(t, status.IsStateConflict(err))
	})
}
