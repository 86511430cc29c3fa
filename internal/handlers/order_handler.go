package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/services"
)

type OrderHandler struct {
	orders    *services.OrderService
	payments  *services.PaymentService
	reconcile *services.ReconcileService
}

func NewOrderHandler(orders *services.OrderService, payments *services.PaymentService, reconcile *services.ReconcileService) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		payments:  payments,
		reconcile: reconcile,
	}
}

// CreateOrder - reserve inventory and create a pending purchase.
func (h *OrderHandler) CreateOrder(e *core.RequestEvent) error {
	auth, err := requireAttendee(e)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	confirmation, err := h.orders.CreateOrder(e.Request.Context(), auth.Id, req)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusCreated, confirmation)
}

// GetOrder - purchase detail for its buyer.
func (h *OrderHandler) GetOrder(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	orderRef := e.Request.PathValue("orderRef")

	purchase, err := h.orders.GetPurchase(e.Request.Context(), auth.Id, orderRef)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, purchase)
}

// Checkout - signed PayHere redirect parameters for a pending purchase.
// The client echoes the total it displayed; a mismatch with the stored
// total is rejected before any gateway interaction.
func (h *OrderHandler) Checkout(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	orderRef := e.Request.PathValue("orderRef")

	var req struct {
		Amount string `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	params, err := h.payments.BuildCheckout(e.Request.Context(), auth.Id, orderRef, req.Amount)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, params)
}

// CancelOrder - explicit buyer cancel of a pending purchase, releasing its
// reserved inventory.
func (h *OrderHandler) CancelOrder(e *core.RequestEvent) error {
	auth, err := requireAuth(e)
	if err != nil {
		return err
	}

	orderRef := e.Request.PathValue("orderRef")

	result, err := h.reconcile.Cancel(e.Request.Context(), auth.Id, orderRef)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, result)
}
