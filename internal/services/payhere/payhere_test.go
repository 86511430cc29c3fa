package payhere

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(sandbox bool) *Client {
	return New(&Config{
		MerchantID:     "1211149",
		MerchantSecret: "MzY0NjInotARealSecret",
		Sandbox:        sandbox,
		Currency:       "LKR",
		ReturnURL:      "https://eventpass.lk/orders/return",
		CancelURL:      "https://eventpass.lk/orders/cancel",
		NotifyURL:      "https://eventpass.lk/api/v1/payments/payhere/notify",
	})
}

func md5hexUpper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func TestGenerateHash(t *testing.T) {
	c := testClient(true)
	amount := decimal.RequireFromString("455.01")

	got := c.GenerateHash("EP-20260901-AB12CD34", amount, "LKR")

	want := md5hexUpper("1211149" + "EP-20260901-AB12CD34" + "455.01" + "LKR" + md5hexUpper("MzY0NjInotARealSecret"))
	assert.Equal(t, want, got)
	assert.Equal(t, strings.ToUpper(got), got)

	// Same inputs, same hash.
	assert.Equal(t, got, c.GenerateHash("EP-20260901-AB12CD34", amount, "LKR"))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"303", "303.00"},
		{"12.5", "12.50"},
		{"455.01", "455.01"},
		{"0.005", "0.01"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatAmount(decimal.RequireFromString(tc.in)), "amount %s", tc.in)
	}
}

func TestVerify(t *testing.T) {
	c := testClient(true)

	n := &Notification{
		MerchantID:    "1211149",
		OrderID:       "EP-20260901-AB12CD34",
		PaymentID:     "320025300",
		PayHereAmount: "455.01",
		Currency:      "LKR",
		StatusCode:    "2",
	}
	n.MD5Signature = md5hexUpper("1211149" + n.OrderID + n.PayHereAmount + n.Currency + n.StatusCode + md5hexUpper("MzY0NjInotARealSecret"))

	assert.True(t, c.Verify(n))

	// Case of the signature must not matter.
	n.MD5Signature = strings.ToLower(n.MD5Signature)
	assert.True(t, c.Verify(n))

	// Any field change invalidates it.
	tampered := *n
	tampered.PayHereAmount = "1.00"
	assert.False(t, c.Verify(&tampered))

	tampered = *n
	tampered.StatusCode = "-2"
	assert.False(t, c.Verify(&tampered))

	tampered = *n
	tampered.MD5Signature = "0123456789ABCDEF0123456789ABCDEF"
	assert.False(t, c.Verify(&tampered))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want Outcome
	}{
		{"2", OutcomeApproved},
		{"0", OutcomeDeclined},  // pending
		{"-1", OutcomeDeclined}, // cancelled
		{"-2", OutcomeDeclined}, // failed
		{"-3", OutcomeDeclined}, // chargeback
		{"", OutcomeDeclined},
		{"garbage", OutcomeDeclined},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(&Notification{StatusCode: tc.code}), "status code %q", tc.code)
	}
}

func TestBuildCheckout(t *testing.T) {
	c := testClient(true)
	amount := decimal.RequireFromString("455.01")

	params := c.BuildCheckout("EP-20260901-AB12CD34", amount, "General x2, VIP x1", "Nadia Perera", "nadia@example.com", "+94771234567")
	require.NotNil(t, params)

	assert.Equal(t, "https://sandbox.payhere.lk/pay/checkout", params.CheckoutURL)
	assert.Equal(t, "1211149", params.MerchantID)
	assert.Equal(t, "EP-20260901-AB12CD34", params.OrderID)
	assert.Equal(t, "455.01", params.Amount)
	assert.Equal(t, "LKR", params.Currency)
	assert.Equal(t, c.GenerateHash("EP-20260901-AB12CD34", amount, "LKR"), params.Hash)
	assert.Equal(t, "https://eventpass.lk/api/v1/payments/payhere/notify", params.NotifyURL)
	assert.Equal(t, "General x2, VIP x1", params.Items)
}

func TestCheckoutURL(t *testing.T) {
	assert.Equal(t, "https://sandbox.payhere.lk/pay/checkout", testClient(true).CheckoutURL())
	assert.Equal(t, "https://www.payhere.lk/pay/checkout", testClient(false).CheckoutURL())
}
