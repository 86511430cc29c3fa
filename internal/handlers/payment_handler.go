package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/services"
	"eventpass/internal/services/payhere"
)

type PaymentHandler struct {
	reconcile *services.ReconcileService
}

func NewPaymentHandler(reconcile *services.ReconcileService) *PaymentHandler {
	return &PaymentHandler{reconcile: reconcile}
}

// HandleCallback - PayHere posts the same payload shape to the notify,
// success and failure endpoints. The status code in the payload, not the
// endpoint, decides which reconciliation path runs, so all three routes
// share this handler.
func (h *PaymentHandler) HandleCallback(e *core.RequestEvent) error {
	var n payhere.Notification
	if err := e.BindBody(&n); err != nil {
		return apis.NewBadRequestError("Invalid callback payload", err)
	}
	if n.OrderID == "" {
		return apis.NewBadRequestError("Missing order_id", nil)
	}

	result, err := h.reconcile.HandleNotification(e.Request.Context(), &n)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, result)
}
