// Package payhere implements the hash exchange and callback verification
// for the PayHere payment gateway. The client never talks to PayHere
// directly; the browser is redirected to the checkout page and PayHere
// calls the notify endpoint back asynchronously.
package payhere

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	checkoutURLLive    = "https://www.payhere.lk/pay/checkout"
	checkoutURLSandbox = "https://sandbox.payhere.lk/pay/checkout"

	// StatusCodeSuccess is the only gateway status code treated as an
	// approved payment. Every other code is declined.
	StatusCodeSuccess = "2"
)

type Config struct {
	MerchantID     string `json:"merchant_id"`
	MerchantSecret string `json:"merchant_secret"`
	Sandbox        bool   `json:"sandbox"`
	Currency       string `json:"currency"`
	ReturnURL      string `json:"return_url"`
	CancelURL      string `json:"cancel_url"`
	NotifyURL      string `json:"notify_url"`
}

type Client struct {
	merchantID   string
	hashedSecret string
	sandbox      bool
	currency     string
	returnURL    string
	cancelURL    string
	notifyURL    string
}

// New creates a PayHere client. The merchant secret is digested once up
// front; only the uppercase hex digest participates in hash generation.
func New(cfg *Config) *Client {
	return &Client{
		merchantID:   cfg.MerchantID,
		hashedSecret: md5Upper(cfg.MerchantSecret),
		sandbox:      cfg.Sandbox,
		currency:     cfg.Currency,
		returnURL:    cfg.ReturnURL,
		cancelURL:    cfg.CancelURL,
		notifyURL:    cfg.NotifyURL,
	}
}

func (c *Client) MerchantID() string { return c.merchantID }
func (c *Client) Currency() string   { return c.currency }

func (c *Client) CheckoutURL() string {
	if c.sandbox {
		return checkoutURLSandbox
	}
	return checkoutURLLive
}

// GenerateHash computes the checkout signature:
// md5(merchantID + orderRef + amount + currency + md5(secret)), uppercase
// hex, with the amount formatted to exactly two decimal places.
func (c *Client) GenerateHash(orderRef string, amount decimal.Decimal, currency string) string {
	return md5Upper(c.merchantID + orderRef + FormatAmount(amount) + currency + c.hashedSecret)
}

// Notification is the payload PayHere posts to the notify endpoint.
type Notification struct {
	MerchantID    string `json:"merchant_id" form:"merchant_id"`
	OrderID       string `json:"order_id" form:"order_id"`
	PaymentID     string `json:"payment_id" form:"payment_id"`
	PayHereAmount string `json:"payhere_amount" form:"payhere_amount"`
	Currency      string `json:"payhere_currency" form:"payhere_currency"`
	StatusCode    string `json:"status_code" form:"status_code"`
	MD5Signature  string `json:"md5sig" form:"md5sig"`
	StatusMessage string `json:"status_message" form:"status_message"`
	Method        string `json:"method" form:"method"`
}

// Verify recomputes the md5sig over the notification fields and compares
// it in constant time.
func (c *Client) Verify(n *Notification) bool {
	expected := md5Upper(c.merchantID + n.OrderID + n.PayHereAmount + n.Currency + n.StatusCode + c.hashedSecret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(n.MD5Signature))) == 1
}

// Outcome is the binary classification of a gateway callback. There is no
// third outcome; ambiguous payloads are declined.
type Outcome int

const (
	OutcomeDeclined Outcome = iota
	OutcomeApproved
)

func (o Outcome) String() string {
	if o == OutcomeApproved {
		return "approved"
	}
	return "declined"
}

// Classify maps the gateway status code to an outcome.
func Classify(n *Notification) Outcome {
	if n.StatusCode == StatusCodeSuccess {
		return OutcomeApproved
	}
	return OutcomeDeclined
}

// CheckoutParams is everything the frontend needs to redirect the buyer to
// the PayHere checkout page.
type CheckoutParams struct {
	CheckoutURL string `json:"checkout_url"`
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Hash        string `json:"hash"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	NotifyURL   string `json:"notify_url"`
	FirstName   string `json:"first_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Items       string `json:"items"`
}

// BuildCheckout assembles the redirect parameters for a priced order.
func (c *Client) BuildCheckout(orderRef string, amount decimal.Decimal, itemsLabel, buyerName, buyerEmail, buyerPhone string) *CheckoutParams {
	return &CheckoutParams{
		CheckoutURL: c.CheckoutURL(),
		MerchantID:  c.merchantID,
		OrderID:     orderRef,
		Amount:      FormatAmount(amount),
		Currency:    c.currency,
		Hash:        c.GenerateHash(orderRef, amount, c.currency),
		ReturnURL:   c.returnURL,
		CancelURL:   c.cancelURL,
		NotifyURL:   c.notifyURL,
		FirstName:   buyerName,
		Email:       buyerEmail,
		Phone:       buyerPhone,
		Items:       itemsLabel,
	}
}

// FormatAmount renders an amount with exactly two decimal places, the form
// PayHere hashes and echoes back.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
