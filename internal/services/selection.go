package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"eventpass/internal/status"
	"eventpass/models"
)

// FeeRate is the platform fee applied to every order subtotal.
var FeeRate = decimal.NewFromFloat(0.01)

// Selection maps a ticket type id to the requested quantity.
type Selection map[string]int

// PricedSelection is the itemized result of validating a selection against
// a fresh read of the catalog.
type PricedSelection struct {
	Items        []models.LineItem `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Fee          decimal.Decimal   `json:"fee"`
	Total        decimal.Decimal   `json:"total"`
	TotalTickets int               `json:"total_tickets"`
	Currency     string            `json:"currency"`
}

// ValidateSelection checks a selection against the given ticket types and
// prices it. It is pure: callers decide whether the reads behind it are
// advisory (catalog endpoint) or transactional (order creation re-runs it
// inside the reservation transaction to close the check-then-act race).
func ValidateSelection(event *models.Event, types []models.TicketType, sel Selection, now time.Time) (*PricedSelection, error) {
	if len(sel) == 0 {
		return nil, &status.ValidationError{Field: "selection", Reason: "is empty"}
	}

	byID := make(map[string]*models.TicketType, len(types))
	for i := range types {
		byID[types[i].ID] = &types[i]
	}

	// Stable line order regardless of map iteration.
	ids := make([]string, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	priced := &PricedSelection{
		Subtotal: decimal.Zero,
	}

	for _, id := range ids {
		qty := sel[id]
		if qty <= 0 {
			return nil, &status.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		}

		tt, ok := byID[id]
		if !ok || tt.EventID != event.ID {
			return nil, &status.AvailabilityError{
				TicketTypeID: id,
				Requested:    qty,
				Reason:       "does not belong to this event",
			}
		}
		if tt.Status != models.TicketStatusActive {
			return nil, &status.AvailabilityError{
				TicketTypeID: id,
				Requested:    qty,
				Available:    tt.Available(),
				Reason:       "not on sale",
			}
		}
		if !tt.SaleActive(now) {
			return nil, &status.AvailabilityError{
				TicketTypeID: id,
				Requested:    qty,
				Available:    tt.Available(),
				Reason:       "outside the sale window",
			}
		}
		if qty > tt.Available() {
			return nil, &status.AvailabilityError{
				TicketTypeID: id,
				Requested:    qty,
				Available:    tt.Available(),
				Reason:       "insufficient inventory",
			}
		}
		if tt.MaxPerPurchase > 0 && qty > tt.MaxPerPurchase {
			return nil, &status.AvailabilityError{
				TicketTypeID: id,
				Requested:    qty,
				Available:    tt.MaxPerPurchase,
				Reason:       "exceeds per-purchase limit",
			}
		}

		lineSubtotal := tt.Price.Mul(decimal.NewFromInt(int64(qty)))
		priced.Items = append(priced.Items, models.LineItem{
			TicketTypeID:   tt.ID,
			TicketName:     tt.Name,
			Quantity:       qty,
			PricePerTicket: tt.Price,
			Subtotal:       lineSubtotal,
		})
		priced.Subtotal = priced.Subtotal.Add(lineSubtotal)
		priced.TotalTickets += qty
		if priced.Currency == "" {
			priced.Currency = tt.Currency
		}
	}

	priced.Fee = priced.Subtotal.Mul(FeeRate).Round(2)
	priced.Total = priced.Subtotal.Add(priced.Fee)
	return priced, nil
}
