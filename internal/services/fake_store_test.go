package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventpass/internal/status"
	"eventpass/internal/store"
	"eventpass/models"
)

// fakeStore is an in-memory Store with snapshot-rollback transactions so
// the services can be tested for all-or-nothing behavior without a
// database.
type fakeStore struct {
	mu          sync.Mutex
	events      map[string]models.Event
	ticketTypes map[string]models.TicketType
	purchases   map[string]models.Purchase
	seq         int

	// failure injection
	reserveFailID     string
	createPurchaseErr error
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:      map[string]models.Event{},
		ticketTypes: map[string]models.TicketType{},
		purchases:   map[string]models.Purchase{},
	}
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(tx store.Store) error) error {
	f.mu.Lock()
	events := cloneMap(f.events)
	ticketTypes := cloneMap(f.ticketTypes)
	purchases := make(map[string]models.Purchase, len(f.purchases))
	for id, p := range f.purchases {
		purchases[id] = clonePurchase(p)
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.events = events
		f.ticketTypes = ticketTypes
		f.purchases = purchases
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) EventByID(ctx context.Context, eventID string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[eventID]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	return &event, nil
}

func (f *fakeStore) TicketTypesByEvent(ctx context.Context, eventID string) ([]models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var types []models.TicketType
	for _, tt := range f.ticketTypes {
		if tt.EventID == eventID {
			types = append(types, tt)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

func (f *fakeStore) TicketTypeByID(ctx context.Context, ticketTypeID string) (*models.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[ticketTypeID]
	if !ok {
		return nil, &status.AvailabilityError{TicketTypeID: ticketTypeID, Reason: "unknown ticket type"}
	}
	return &tt, nil
}

func (f *fakeStore) ReserveInventory(ctx context.Context, ticketTypeID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[ticketTypeID]
	if !ok {
		return &status.AvailabilityError{TicketTypeID: ticketTypeID, Reason: "unknown ticket type"}
	}
	if ticketTypeID == f.reserveFailID || tt.Sold+qty > tt.Quantity {
		return &status.AvailabilityError{
			TicketTypeID: ticketTypeID,
			Requested:    qty,
			Available:    tt.Available(),
			Reason:       "insufficient inventory",
		}
	}

	tt.Sold += qty
	if tt.Sold >= tt.Quantity {
		tt.Status = models.TicketStatusSoldOut
	}
	f.ticketTypes[ticketTypeID] = tt
	return nil
}

func (f *fakeStore) ReleaseInventory(ctx context.Context, ticketTypeID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tt, ok := f.ticketTypes[ticketTypeID]
	if !ok {
		return &status.AvailabilityError{TicketTypeID: ticketTypeID, Reason: "unknown ticket type"}
	}

	tt.Sold -= qty
	if tt.Sold < 0 {
		tt.Sold = 0
	}
	if tt.Status == models.TicketStatusSoldOut {
		tt.Status = models.TicketStatusActive
	}
	f.ticketTypes[ticketTypeID] = tt
	return nil
}

func (f *fakeStore) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createPurchaseErr != nil {
		return f.createPurchaseErr
	}
	for _, existing := range f.purchases {
		if existing.OrderRef == p.OrderRef {
			return fmt.Errorf("duplicate order ref %s", p.OrderRef)
		}
	}

	f.seq++
	p.ID = fmt.Sprintf("purchase%d", f.seq)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.purchases[p.ID] = clonePurchase(*p)
	return nil
}

func (f *fakeStore) UpdatePurchase(ctx context.Context, p *models.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.purchases[p.ID]; !ok {
		return status.ErrPurchaseNotFound
	}
	f.purchases[p.ID] = clonePurchase(*p)
	return nil
}

func (f *fakeStore) PurchaseByID(ctx context.Context, id string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.purchases[id]
	if !ok {
		return nil, status.ErrPurchaseNotFound
	}
	p = clonePurchase(p)
	return &p, nil
}

func (f *fakeStore) PurchaseByOrderRef(ctx context.Context, orderRef string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.purchases {
		if p.OrderRef == orderRef {
			p = clonePurchase(p)
			return &p, nil
		}
	}
	return nil, status.ErrPurchaseNotFound
}

func (f *fakeStore) StalePendingPurchases(ctx context.Context, cutoff time.Time, limit int) ([]models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stale []models.Purchase
	for _, p := range f.purchases {
		if p.PaymentStatus == models.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			stale = append(stale, clonePurchase(p))
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (f *fakeStore) soldCount(ticketTypeID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticketTypes[ticketTypeID].Sold
}

func (f *fakeStore) setPurchaseCreatedAt(id string, createdAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.purchases[id]
	p.CreatedAt = createdAt
	f.purchases[id] = p
}

func cloneMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func clonePurchase(p models.Purchase) models.Purchase {
	items := make([]models.LineItem, len(p.Items))
	copy(items, p.Items)
	p.Items = items

	if p.QRPayload != nil {
		payload := *p.QRPayload
		payload.Tickets = append([]models.QRLineItem(nil), p.QRPayload.Tickets...)
		p.QRPayload = &payload
	}
	return p
}
