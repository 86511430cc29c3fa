// Package store isolates persistence behind a small repository interface so
// the reservation and reconciliation services can be exercised against a
// fake in tests while production runs on PocketBase collections.
package store

import (
	"context"
	"time"

	"eventpass/models"
)

// Store is the persistence contract for the ticketing core. Every mutation
// of a ticket type's sold counter and its paired purchase write must happen
// inside a single RunInTx call.
type Store interface {
	// RunInTx executes fn atomically. The Store passed to fn operates on
	// the same transaction; any error rolls the whole unit back.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	EventByID(ctx context.Context, eventID string) (*models.Event, error)
	TicketTypesByEvent(ctx context.Context, eventID string) ([]models.TicketType, error)
	TicketTypeByID(ctx context.Context, ticketTypeID string) (*models.TicketType, error)

	// ReserveInventory increments sold by qty iff sold+qty <= quantity.
	// Returns an AvailabilityError carrying the current remaining count
	// when the guard fails.
	ReserveInventory(ctx context.Context, ticketTypeID string, qty int) error

	// ReleaseInventory decrements sold by qty, flooring at zero.
	ReleaseInventory(ctx context.Context, ticketTypeID string, qty int) error

	CreatePurchase(ctx context.Context, p *models.Purchase) error
	UpdatePurchase(ctx context.Context, p *models.Purchase) error
	PurchaseByID(ctx context.Context, id string) (*models.Purchase, error)
	PurchaseByOrderRef(ctx context.Context, orderRef string) (*models.Purchase, error)

	// StalePendingPurchases lists pending purchases created before cutoff,
	// oldest first, up to limit.
	StalePendingPurchases(ctx context.Context, cutoff time.Time, limit int) ([]models.Purchase, error)
}
