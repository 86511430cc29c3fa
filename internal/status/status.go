package status

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound     = errors.New("event: not found or not published")
	ErrEventNotAvailable = errors.New("event: not open for purchase")
	ErrEventExpired      = errors.New("event: already ended")
	ErrPurchaseNotFound  = errors.New("purchase: not found")
	ErrNotOwner          = errors.New("purchase: not owned by caller")
	ErrInvalidSignature  = errors.New("gateway: invalid notification signature")
)

// ValidationError reports malformed caller input. No state is changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// AvailabilityError reports an unsatisfiable ticket selection. Available
// carries the true remaining count at the time of the check.
type AvailabilityError struct {
	TicketTypeID string
	Requested    int
	Available    int
	Reason       string
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("availability: ticket type %s: %s (requested %d, available %d)",
		e.TicketTypeID, e.Reason, e.Requested, e.Available)
}

// StateConflictError reports an attempted transition out of a state that
// does not permit it, e.g. cancelling a completed purchase.
type StateConflictError struct {
	Current   string
	Attempted string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: cannot %s a %s purchase", e.Attempted, e.Current)
}

// AmountMismatchError reports a client-supplied amount that disagrees with
// the stored order total. Rejected before any gateway interaction.
type AmountMismatchError struct {
	Given  string
	Stored string
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: given %s, order total is %s", e.Given, e.Stored)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAvailability(err error) bool {
	var ae *AvailabilityError
	return errors.As(err, &ae)
}

func IsStateConflict(err error) bool {
	var se *StateConflictError
	return errors.As(err, &se)
}

func IsAmountMismatch(err error) bool {
	var me *AmountMismatchError
	return errors.As(err, &me)
}
