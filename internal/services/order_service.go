package services

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventpass/internal/status"
	"eventpass/internal/store"
	"eventpass/models"
	"eventpass/monitoring"
	"eventpass/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OrderService is the reservation manager: it consumes inventory and
// creates the pending purchase inside one transaction, so two concurrent
// buyers can never both pass validation against the same stale counters.
type OrderService struct {
	store store.Store
}

func NewOrderService(st store.Store) *OrderService {
	return &OrderService{store: st}
}

type CreateOrderInput struct {
	EventID       string           `json:"event_id"`
	Selection     Selection        `json:"selection"`
	Buyer         models.BuyerInfo `json:"buyer"`
	PaymentMethod string           `json:"payment_method"`
}

type OrderConfirmation struct {
	PurchaseID   string            `json:"purchase_id"`
	OrderRef     string            `json:"order_ref"`
	Items        []models.LineItem `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Fee          decimal.Decimal   `json:"fee"`
	Total        decimal.Decimal   `json:"total"`
	Currency     string            `json:"currency"`
	TotalTickets int               `json:"total_tickets"`
}

// CreateOrder validates the buyer info, then atomically re-validates the
// selection against fresh counters, reserves inventory and creates the
// pending purchase. Any failure rolls the whole unit back; no partial sold
// increments survive.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID string, in CreateOrderInput) (*OrderConfirmation, error) {
	if err := validateBuyerInfo(in.Buyer); err != nil {
		return nil, err
	}

	started := time.Now()
	var confirmation *OrderConfirmation

	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		now := time.Now()

		event, err := tx.EventByID(ctx, in.EventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusPublished {
			return status.ErrEventNotAvailable
		}
		if event.Ended(now) {
			return status.ErrEventExpired
		}

		// Fresh read inside the transaction; never reuse counters from
		// an earlier advisory validation.
		types, err := tx.TicketTypesByEvent(ctx, in.EventID)
		if err != nil {
			return err
		}

		priced, err := ValidateSelection(event, types, in.Selection, now)
		if err != nil {
			return err
		}

		for _, item := range priced.Items {
			if err := tx.ReserveInventory(ctx, item.TicketTypeID, item.Quantity); err != nil {
				return err
			}
		}

		orderRef, err := utils.GenerateOrderRef(now)
		if err != nil {
			return err
		}

		purchase := &models.Purchase{
			OrderRef:       orderRef,
			BuyerID:        buyerID,
			EventID:        in.EventID,
			Items:          priced.Items,
			SubtotalAmount: priced.Subtotal,
			Fee:            priced.Fee,
			TotalAmount:    priced.Total,
			Currency:       priced.Currency,
			PaymentStatus:  models.PaymentStatusPending,
			Status:         models.PurchaseStatusActive,
			PaymentMethod:  in.PaymentMethod,
			Buyer:          in.Buyer,
		}
		if err := tx.CreatePurchase(ctx, purchase); err != nil {
			return err
		}

		confirmation = &OrderConfirmation{
			PurchaseID:   purchase.ID,
			OrderRef:     purchase.OrderRef,
			Items:        purchase.Items,
			Subtotal:     purchase.SubtotalAmount,
			Fee:          purchase.Fee,
			Total:        purchase.TotalAmount,
			Currency:     purchase.Currency,
			TotalTickets: purchase.TotalTickets(),
		}
		return nil
	})

	monitoring.ObserveReservation(time.Since(started))
	if err != nil {
		monitoring.TrackOrderCreated(in.EventID, "rejected")
		return nil, err
	}

	monitoring.TrackOrderCreated(in.EventID, "created")
	slog.Info("order created",
		"order_ref", confirmation.OrderRef,
		"event_id", in.EventID,
		"tickets", confirmation.TotalTickets,
		"total", confirmation.Total,
	)
	return confirmation, nil
}

// GetPurchase returns a purchase by order reference, restricted to its
// buyer.
func (s *OrderService) GetPurchase(ctx context.Context, buyerID, orderRef string) (*models.Purchase, error) {
	p, err := s.store.PurchaseByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != buyerID {
		return nil, status.ErrNotOwner
	}
	return p, nil
}

func validateBuyerInfo(b models.BuyerInfo) error {
	if strings.TrimSpace(b.Name) == "" {
		return &status.ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(b.Email) == "" {
		return &status.ValidationError{Field: "email", Reason: "is required"}
	}
	if !emailPattern.MatchString(b.Email) {
		return &status.ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if strings.TrimSpace(b.Phone) == "" {
		return &status.ValidationError{Field: "phone", Reason: "is required"}
	}
	return nil
}
