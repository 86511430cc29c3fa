package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"eventpass/internal/services/payhere"
	"eventpass/internal/status"
	"eventpass/internal/store"
)

// PaymentService prepares the gateway checkout for a pending purchase. The
// client-supplied amount must match the stored order total exactly, so a
// tampered frontend can never buy tickets below price.
type PaymentService struct {
	store   store.Store
	gateway *payhere.Client
}

func NewPaymentService(st store.Store, gateway *payhere.Client) *PaymentService {
	return &PaymentService{store: st, gateway: gateway}
}

// BuildCheckout returns the signed PayHere redirect parameters for a
// pending purchase owned by buyerID.
func (s *PaymentService) BuildCheckout(ctx context.Context, buyerID, orderRef, amount string) (*payhere.CheckoutParams, error) {
	p, err := s.store.PurchaseByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if p.BuyerID != buyerID {
		return nil, status.ErrNotOwner
	}
	if !p.Pending() {
		return nil, &status.StateConflictError{Current: p.PaymentStatus, Attempted: "checkout"}
	}

	given, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &status.ValidationError{Field: "amount", Reason: "is not a number"}
	}
	if !given.Round(2).Equal(p.TotalAmount.Round(2)) {
		return nil, &status.AmountMismatchError{
			Given:  payhere.FormatAmount(given),
			Stored: payhere.FormatAmount(p.TotalAmount),
		}
	}

	labels := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		labels = append(labels, fmt.Sprintf("%s x%d", item.TicketName, item.Quantity))
	}

	return s.gateway.BuildCheckout(
		p.OrderRef,
		p.TotalAmount,
		strings.Join(labels, ", "),
		p.Buyer.Name,
		p.Buyer.Email,
		p.Buyer.Phone,
	), nil
}
