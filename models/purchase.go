package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the reservation/order record. It is created in pending state
// with the inventory already reserved, and finalized or released by the
// payment reconciliation flow.
type Purchase struct {
	ID                   string          `json:"id"`
	OrderRef             string          `json:"order_ref"`
	BuyerID              string          `json:"buyer_id"`
	EventID              string          `json:"event_id"`
	Items                []LineItem      `json:"items"`
	SubtotalAmount       decimal.Decimal `json:"subtotal_amount"`
	Fee                  decimal.Decimal `json:"fee"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Currency             string          `json:"currency"`
	PaymentStatus        string          `json:"payment_status"` // pending, completed, failed, refunded, cancelled
	Status               string          `json:"status"`         // active, cancelled, refunded, used
	PaymentMethod        string          `json:"payment_method"`
	PaymentTransactionID string          `json:"payment_transaction_id,omitempty"`
	Buyer                BuyerInfo       `json:"buyer"`
	QRPayload            *QRPayload      `json:"qr_payload,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

type LineItem struct {
	TicketTypeID   string          `json:"ticket_type_id"`
	TicketName     string          `json:"ticket_name"`
	Quantity       int             `json:"quantity"`
	PricePerTicket decimal.Decimal `json:"price_per_ticket"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// BuyerInfo is the contact snapshot captured at order creation.
type BuyerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"

	PurchaseStatusActive    = "active"
	PurchaseStatusCancelled = "cancelled"
	PurchaseStatusRefunded  = "refunded"
	PurchaseStatusUsed      = "used"
)

// Pending reports whether the purchase is still awaiting a gateway outcome.
// Only pending purchases may be completed, failed or cancelled.
func (p *Purchase) Pending() bool {
	return p.PaymentStatus == PaymentStatusPending
}

func (p *Purchase) Completed() bool {
	return p.PaymentStatus == PaymentStatusCompleted
}

// TotalTickets is the sum of reserved quantities across line items.
func (p *Purchase) TotalTickets() int {
	total := 0
	for _, item := range p.Items {
		total += item.Quantity
	}
	return total
}

// QRPayload is the structured payload encoded into the entry QR code once
// payment completes. Generated exactly once per purchase.
type QRPayload struct {
	OrderRef   string       `json:"order_ref"`
	EventID    string       `json:"event_id"`
	EventTitle string       `json:"event_title"`
	EventDate  time.Time    `json:"event_date"`
	Venue      string       `json:"venue"`
	Buyer      BuyerInfo    `json:"buyer"`
	Tickets    []QRLineItem `json:"tickets"`
	Total      string       `json:"total"`
	IssuedAt   time.Time    `json:"issued_at"`
}

type QRLineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
