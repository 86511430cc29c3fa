package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Venue     string    `json:"venue"`
	Date      time.Time `json:"date"`
	EndDate   time.Time `json:"end_date"`
	Organizer string    `json:"organizer"`
	Status    string    `json:"status"` // draft, published, cancelled, completed
}

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Ended reports whether the event is over. Events without an explicit end
// date are treated as ending when the event date has passed.
func (e *Event) Ended(now time.Time) bool {
	end := e.EndDate
	if end.IsZero() {
		end = e.Date
	}
	return !end.IsZero() && end.Before(now)
}

type TicketType struct {
	ID             string          `json:"id"`
	EventID        string          `json:"event_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Quantity       int             `json:"quantity"`
	Sold           int             `json:"sold"`
	Status         string          `json:"status"` // active, inactive, sold_out
	SaleStart      time.Time       `json:"sale_start,omitzero"`
	SaleEnd        time.Time       `json:"sale_end,omitzero"`
	MaxPerPurchase int             `json:"max_per_purchase"`
}

const (
	TicketStatusActive   = "active"
	TicketStatusInactive = "inactive"
	TicketStatusSoldOut  = "sold_out"
)

// Available returns the remaining sellable quantity, never negative.
func (t *TicketType) Available() int {
	if t.Sold >= t.Quantity {
		return 0
	}
	return t.Quantity - t.Sold
}

func (t *TicketType) IsAvailable() bool {
	return t.Sold < t.Quantity
}

// SaleActive reports whether now falls inside the optional sale window.
// Missing bounds are treated as open.
func (t *TicketType) SaleActive(now time.Time) bool {
	if !t.SaleStart.IsZero() && now.Before(t.SaleStart) {
		return false
	}
	if !t.SaleEnd.IsZero() && now.After(t.SaleEnd) {
		return false
	}
	return true
}

// PurchasableTicket is a ticket type annotated with live availability for
// the public catalog view. Reads of this view are advisory; the numbers may
// be stale by the time a reservation attempt runs.
type PurchasableTicket struct {
	TicketType
	AvailableCount  int  `json:"available"`
	IsAvailableFlag bool `json:"is_available"`
	SaleActiveFlag  bool `json:"sale_active"`
}

type PurchasableEvent struct {
	Event   Event               `json:"event"`
	Tickets []PurchasableTicket `json:"tickets"`
}
