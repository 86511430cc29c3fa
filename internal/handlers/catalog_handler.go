package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetPurchasableEvent - published event with its active ticket types and
// live availability. Open to guests.
func (h *CatalogHandler) GetPurchasableEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	view, err := h.catalog.GetPurchasableEvent(e.Request.Context(), eventID)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, view)
}

// PriceSelection - advisory validation and pricing of a ticket selection.
// The same checks re-run transactionally at order creation.
func (h *CatalogHandler) PriceSelection(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	var req struct {
		Selection services.Selection `json:"selection"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	priced, err := h.catalog.PriceSelection(e.Request.Context(), eventID, req.Selection)
	if err != nil {
		return toAPIError(err)
	}

	return e.JSON(http.StatusOK, priced)
}
