package services

import (
	"context"
	"log/slog"
	"time"

	"eventpass/internal/services/payhere"
	"eventpass/internal/status"
	"eventpass/internal/store"
	"eventpass/models"
	"eventpass/monitoring"
)

// Notifier publishes realtime purchase-outcome events to buyers.
type Notifier interface {
	Publish(channel string, message map[string]any)
}

// ReconcileService owns the purchase state machine. Gateway callbacks and
// explicit cancels flow through here; every inventory release happens in
// the same transaction as the paired purchase transition.
type ReconcileService struct {
	store      store.Store
	gateway    *payhere.Client
	notifier   Notifier
	pendingTTL time.Duration
}

func NewReconcileService(st store.Store, gateway *payhere.Client, notifier Notifier, pendingTTL time.Duration) *ReconcileService {
	return &ReconcileService{
		store:      st,
		gateway:    gateway,
		notifier:   notifier,
		pendingTTL: pendingTTL,
	}
}

// ReconcileResult describes the purchase state after a callback was
// processed. Replay is true when the callback was a duplicate of an
// already-final transition and nothing changed.
type ReconcileResult struct {
	PurchaseID    string            `json:"purchase_id"`
	OrderRef      string            `json:"order_ref"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	QRPayload     *models.QRPayload `json:"qr_payload,omitempty"`
	Replay        bool              `json:"-"`
}

// HandleNotification verifies and classifies a gateway notification, then
// dispatches to the completion or failure path. Classification is binary;
// there is no third outcome.
func (s *ReconcileService) HandleNotification(ctx context.Context, n *payhere.Notification) (*ReconcileResult, error) {
	if !s.gateway.Verify(n) {
		slog.Warn("gateway notification rejected", "order_ref", n.OrderID, "status_code", n.StatusCode)
		return nil, status.ErrInvalidSignature
	}

	outcome := payhere.Classify(n)
	slog.Info("gateway notification received",
		"order_ref", n.OrderID,
		"payment_id", n.PaymentID,
		"outcome", outcome.String(),
	)

	if outcome == payhere.OutcomeApproved {
		return s.Complete(ctx, n.OrderID, n.PaymentID)
	}
	return s.Fail(ctx, n.OrderID)
}

// Complete transitions a pending purchase to completed and generates its
// QR payload exactly once. Duplicate success callbacks are a safe no-op
// returning the existing state; a completed record found without a QR
// payload gets it backfilled lazily, without touching inventory.
func (s *ReconcileService) Complete(ctx context.Context, orderRef, paymentTransactionID string) (*ReconcileResult, error) {
	var result *ReconcileResult

	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		p, err := tx.PurchaseByOrderRef(ctx, orderRef)
		if err != nil {
			return err
		}

		if p.Completed() {
			if p.QRPayload == nil {
				payload, err := s.buildQRPayload(ctx, tx, p)
				if err != nil {
					return err
				}
				p.QRPayload = payload
				if err := tx.UpdatePurchase(ctx, p); err != nil {
					return err
				}
			}
			result = resultFrom(p, true)
			return nil
		}

		if !p.Pending() {
			return &status.StateConflictError{Current: p.PaymentStatus, Attempted: "complete"}
		}

		p.PaymentStatus = models.PaymentStatusCompleted
		p.PaymentTransactionID = paymentTransactionID

		payload, err := s.buildQRPayload(ctx, tx, p)
		if err != nil {
			return err
		}
		p.QRPayload = payload

		if err := tx.UpdatePurchase(ctx, p); err != nil {
			return err
		}

		result = resultFrom(p, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackCallback("approved", result.Replay)
	if !result.Replay {
		s.notifyBuyer(ctx, result.OrderRef, "payment_success")
	}
	return result, nil
}

// Fail transitions a pending purchase to failed and returns every reserved
// ticket to inventory in the same transaction. A duplicate failure
// callback for an already released purchase is a no-op; failing a
// completed purchase is rejected.
func (s *ReconcileService) Fail(ctx context.Context, orderRef string) (*ReconcileResult, error) {
	result, err := s.release(ctx, orderRef, "", models.PaymentStatusFailed, "gateway_declined")
	if err != nil {
		return nil, err
	}

	monitoring.TrackCallback("declined", result.Replay)
	if !result.Replay {
		s.notifyBuyer(ctx, result.OrderRef, "payment_failed")
	}
	return result, nil
}

// Cancel is the explicit buyer cancel of a pending purchase.
func (s *ReconcileService) Cancel(ctx context.Context, buyerID, orderRef string) (*ReconcileResult, error) {
	return s.release(ctx, orderRef, buyerID, models.PaymentStatusCancelled, "buyer_cancelled")
}

func (s *ReconcileService) release(ctx context.Context, orderRef, requireOwner, targetStatus, reason string) (*ReconcileResult, error) {
	var result *ReconcileResult
	released := 0

	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		released = 0

		p, err := tx.PurchaseByOrderRef(ctx, orderRef)
		if err != nil {
			return err
		}
		if requireOwner != "" && p.BuyerID != requireOwner {
			return status.ErrNotOwner
		}

		// Repeat delivery after the inventory was already released.
		if p.PaymentStatus == targetStatus {
			result = resultFrom(p, true)
			return nil
		}

		if !p.Pending() {
			return &status.StateConflictError{Current: p.PaymentStatus, Attempted: reason}
		}

		// Mirror of the reservation: decrement by exactly the reserved
		// quantities, all-or-nothing.
		for _, item := range p.Items {
			if err := tx.ReleaseInventory(ctx, item.TicketTypeID, item.Quantity); err != nil {
				return err
			}
			released += item.Quantity
		}

		p.PaymentStatus = targetStatus
		p.Status = models.PurchaseStatusCancelled
		if err := tx.UpdatePurchase(ctx, p); err != nil {
			return err
		}

		result = resultFrom(p, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Replay {
		monitoring.TrackRelease(reason, released)
		slog.Info("reserved inventory released",
			"order_ref", result.OrderRef,
			"reason", reason,
			"tickets", released,
		)
	}
	return result, nil
}

// ExpireStalePending cancels pending purchases that never received a
// gateway callback, returning their reserved inventory. Without this,
// abandoned checkouts would hold capacity forever.
func (s *ReconcileService) ExpireStalePending(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapOnce(ctx)
		}
	}
}

func (s *ReconcileService) reapOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.pendingTTL)
	stale, err := s.store.StalePendingPurchases(ctx, cutoff, 100)
	if err != nil {
		slog.Error("stale pending scan failed", "error", err)
		return
	}

	for _, p := range stale {
		if _, err := s.release(ctx, p.OrderRef, "", models.PaymentStatusCancelled, "checkout_expired"); err != nil {
			slog.Error("stale pending release failed", "order_ref", p.OrderRef, "error", err)
		}
	}

	if len(stale) > 0 {
		slog.Info("expired stale pending purchases", "count", len(stale))
	}
}

func (s *ReconcileService) buildQRPayload(ctx context.Context, tx store.Store, p *models.Purchase) (*models.QRPayload, error) {
	event, err := tx.EventByID(ctx, p.EventID)
	if err != nil {
		return nil, err
	}

	tickets := make([]models.QRLineItem, 0, len(p.Items))
	for _, item := range p.Items {
		tickets = append(tickets, models.QRLineItem{
			Name:     item.TicketName,
			Quantity: item.Quantity,
		})
	}

	return &models.QRPayload{
		OrderRef:   p.OrderRef,
		EventID:    event.ID,
		EventTitle: event.Title,
		EventDate:  event.Date,
		Venue:      event.Venue,
		Buyer:      p.Buyer,
		Tickets:    tickets,
		Total:      payhere.FormatAmount(p.TotalAmount),
		IssuedAt:   time.Now().UTC(),
	}, nil
}

func (s *ReconcileService) notifyBuyer(ctx context.Context, orderRef, kind string) {
	if s.notifier == nil {
		return
	}

	p, err := s.store.PurchaseByOrderRef(ctx, orderRef)
	if err != nil {
		return
	}

	s.notifier.Publish("user-"+p.BuyerID, map[string]any{
		"type":      kind,
		"order_ref": p.OrderRef,
		"event_id":  p.EventID,
		"total":     payhere.FormatAmount(p.TotalAmount),
	})
}

func resultFrom(p *models.Purchase, replay bool) *ReconcileResult {
	return &ReconcileResult{
		PurchaseID:    p.ID,
		OrderRef:      p.OrderRef,
		PaymentStatus: p.PaymentStatus,
		Status:        p.Status,
		QRPayload:     p.QRPayload,
		Replay:        replay,
	}
}
