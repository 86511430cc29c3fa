package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventpass/internal/status"
)

// toAPIError maps the domain error taxonomy onto API errors. Anything
// outside the taxonomy is an infrastructure fault and surfaces as a
// generic failure without leaking internals.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrPurchaseNotFound),
		errors.Is(err, status.ErrNotOwner):
		return apis.NewNotFoundError("Not found", err)
	case errors.Is(err, status.ErrEventExpired):
		return apis.NewApiError(http.StatusGone, "Event has already ended", err)
	case errors.Is(err, status.ErrEventNotAvailable):
		return apis.NewBadRequestError("Event is not open for purchase", err)
	case errors.Is(err, status.ErrInvalidSignature):
		return apis.NewBadRequestError("Invalid notification signature", err)
	case status.IsValidation(err), status.IsAmountMismatch(err):
		return apis.NewBadRequestError(err.Error(), err)
	case status.IsAvailability(err), status.IsStateConflict(err):
		return apis.NewApiError(http.StatusConflict, err.Error(), err)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", nil)
	}
}

const (
	roleAttendee  = "attendee"
	roleOrganizer = "organizer"
)

// requireAttendee gates purchase creation to authenticated attendees.
func requireAttendee(e *core.RequestEvent) (*core.Record, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	if e.Auth.GetString("role") != roleAttendee {
		return nil, apis.NewForbiddenError("Only attendees can purchase tickets", nil)
	}
	return e.Auth, nil
}

func requireAuth(e *core.RequestEvent) (*core.Record, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}
	return e.Auth, nil
}
