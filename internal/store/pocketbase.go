package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"eventpass/internal/status"
	"eventpass/models"
)

const (
	collectionEvents      = "events"
	collectionTicketTypes = "ticket_types"
	collectionPurchases   = "purchases"
)

// PocketBaseStore implements Store on top of PocketBase collections. The
// sold counter updates go through guarded raw SQL so the availability check
// and the increment are a single statement.
type PocketBaseStore struct {
	app core.App
}

func NewPocketBaseStore(app core.App) *PocketBaseStore {
	return &PocketBaseStore{app: app}
}

func (s *PocketBaseStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PocketBaseStore{app: txApp})
	})
}

func (s *PocketBaseStore) EventByID(ctx context.Context, eventID string) (*models.Event, error) {
	record, err := s.app.FindRecordById(collectionEvents, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event %s: %w", eventID, err)
	}
	return eventFromRecord(record), nil
}

func (s *PocketBaseStore) TicketTypesByEvent(ctx context.Context, eventID string) ([]models.TicketType, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionTicketTypes,
		"event = {:event}",
		"created",
		0,
		0,
		map[string]any{"event": eventID},
	)
	if err != nil {
		return nil, fmt.Errorf("find ticket types for event %s: %w", eventID, err)
	}

	types := make([]models.TicketType, 0, len(records))
	for _, record := range records {
		types = append(types, *ticketTypeFromRecord(record))
	}
	return types, nil
}

func (s *PocketBaseStore) TicketTypeByID(ctx context.Context, ticketTypeID string) (*models.TicketType, error) {
	record, err := s.app.FindRecordById(collectionTicketTypes, ticketTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &status.AvailabilityError{
				TicketTypeID: ticketTypeID,
				Reason:       "unknown ticket type",
			}
		}
		return nil, fmt.Errorf("find ticket type %s: %w", ticketTypeID, err)
	}
	return ticketTypeFromRecord(record), nil
}

func (s *PocketBaseStore) ReserveInventory(ctx context.Context, ticketTypeID string, qty int) error {
	res, err := s.app.DB().NewQuery(`
		UPDATE ticket_types
		SET sold = sold + {:qty},
		    status = (CASE WHEN sold + {:qty} >= quantity THEN 'sold_out' ELSE status END)
		WHERE id = {:id} AND sold + {:qty} <= quantity
	`).Bind(dbx.Params{"qty": qty, "id": ticketTypeID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("reserve %d of ticket type %s: %w", qty, ticketTypeID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve %d of ticket type %s: %w", qty, ticketTypeID, err)
	}
	if affected == 0 {
		// Guard lost: report the true remaining count.
		tt, findErr := s.TicketTypeByID(ctx, ticketTypeID)
		if findErr != nil {
			return findErr
		}
		return &status.AvailabilityError{
			TicketTypeID: ticketTypeID,
			Requested:    qty,
			Available:    tt.Available(),
			Reason:       "insufficient inventory",
		}
	}
	return nil
}

func (s *PocketBaseStore) ReleaseInventory(ctx context.Context, ticketTypeID string, qty int) error {
	_, err := s.app.DB().NewQuery(`
		UPDATE ticket_types
		SET sold = MAX(sold - {:qty}, 0),
		    status = (CASE WHEN status = 'sold_out' THEN 'active' ELSE status END)
		WHERE id = {:id}
	`).Bind(dbx.Params{"qty": qty, "id": ticketTypeID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("release %d of ticket type %s: %w", qty, ticketTypeID, err)
	}
	return nil
}

func (s *PocketBaseStore) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	collection, err := s.app.FindCollectionByNameOrId(collectionPurchases)
	if err != nil {
		return fmt.Errorf("find purchases collection: %w", err)
	}

	record := core.NewRecord(collection)
	applyPurchase(record, p)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("create purchase %s: %w", p.OrderRef, err)
	}

	p.ID = record.Id
	p.CreatedAt = record.GetDateTime("created").Time()
	return nil
}

func (s *PocketBaseStore) UpdatePurchase(ctx context.Context, p *models.Purchase) error {
	record, err := s.app.FindRecordById(collectionPurchases, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrPurchaseNotFound
		}
		return fmt.Errorf("find purchase %s: %w", p.ID, err)
	}

	applyPurchase(record, p)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("update purchase %s: %w", p.ID, err)
	}
	return nil
}

func (s *PocketBaseStore) PurchaseByID(ctx context.Context, id string) (*models.Purchase, error) {
	record, err := s.app.FindRecordById(collectionPurchases, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("find purchase %s: %w", id, err)
	}
	return purchaseFromRecord(record)
}

func (s *PocketBaseStore) PurchaseByOrderRef(ctx context.Context, orderRef string) (*models.Purchase, error) {
	record, err := s.app.FindFirstRecordByFilter(
		collectionPurchases,
		"order_ref = {:ref}",
		map[string]any{"ref": orderRef},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("find purchase by order ref %s: %w", orderRef, err)
	}
	return purchaseFromRecord(record)
}

func (s *PocketBaseStore) StalePendingPurchases(ctx context.Context, cutoff time.Time, limit int) ([]models.Purchase, error) {
	records, err := s.app.FindRecordsByFilter(
		collectionPurchases,
		"payment_status = {:status} && created < {:cutoff}",
		"created",
		limit,
		0,
		map[string]any{
			"status": models.PaymentStatusPending,
			"cutoff": cutoff.UTC().Format("2006-01-02 15:04:05.000Z"),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("find stale pending purchases: %w", err)
	}

	purchases := make([]models.Purchase, 0, len(records))
	for _, record := range records {
		p, err := purchaseFromRecord(record)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, nil
}

func eventFromRecord(record *core.Record) *models.Event {
	return &models.Event{
		ID:        record.Id,
		Title:     record.GetString("title"),
		Category:  record.GetString("category"),
		Venue:     record.GetString("venue"),
		Date:      record.GetDateTime("date").Time(),
		EndDate:   record.GetDateTime("end_date").Time(),
		Organizer: record.GetString("organizer"),
		Status:    record.GetString("status"),
	}
}

func ticketTypeFromRecord(record *core.Record) *models.TicketType {
	return &models.TicketType{
		ID:             record.Id,
		EventID:        record.GetString("event"),
		Name:           record.GetString("name"),
		Price:          decimal.NewFromFloat(record.GetFloat("price")),
		Currency:       record.GetString("currency"),
		Quantity:       record.GetInt("quantity"),
		Sold:           record.GetInt("sold"),
		Status:         record.GetString("status"),
		SaleStart:      record.GetDateTime("sale_start").Time(),
		SaleEnd:        record.GetDateTime("sale_end").Time(),
		MaxPerPurchase: record.GetInt("max_per_purchase"),
	}
}

func purchaseFromRecord(record *core.Record) (*models.Purchase, error) {
	p := &models.Purchase{
		ID:                   record.Id,
		OrderRef:             record.GetString("order_ref"),
		BuyerID:              record.GetString("buyer"),
		EventID:              record.GetString("event"),
		SubtotalAmount:       decimal.NewFromFloat(record.GetFloat("subtotal_amount")),
		Fee:                  decimal.NewFromFloat(record.GetFloat("fee")),
		TotalAmount:          decimal.NewFromFloat(record.GetFloat("total_amount")),
		Currency:             record.GetString("currency"),
		PaymentStatus:        record.GetString("payment_status"),
		Status:               record.GetString("status"),
		PaymentMethod:        record.GetString("payment_method"),
		PaymentTransactionID: record.GetString("payment_transaction_id"),
		Buyer: models.BuyerInfo{
			Name:  record.GetString("buyer_name"),
			Email: record.GetString("buyer_email"),
			Phone: record.GetString("buyer_phone"),
		},
		CreatedAt: record.GetDateTime("created").Time(),
	}

	if raw := record.GetString("items"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Items); err != nil {
			return nil, fmt.Errorf("decode items of purchase %s: %w", record.Id, err)
		}
	}
	if raw := record.GetString("qr_payload"); raw != "" && raw != "null" {
		payload := &models.QRPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err != nil {
			return nil, fmt.Errorf("decode qr payload of purchase %s: %w", record.Id, err)
		}
		p.QRPayload = payload
	}
	return p, nil
}

func applyPurchase(record *core.Record, p *models.Purchase) {
	record.Set("order_ref", p.OrderRef)
	record.Set("buyer", p.BuyerID)
	record.Set("event", p.EventID)
	record.Set("subtotal_amount", p.SubtotalAmount.InexactFloat64())
	record.Set("fee", p.Fee.InexactFloat64())
	record.Set("total_amount", p.TotalAmount.InexactFloat64())
	record.Set("currency", p.Currency)
	record.Set("payment_status", p.PaymentStatus)
	record.Set("status", p.Status)
	record.Set("payment_method", p.PaymentMethod)
	record.Set("payment_transaction_id", p.PaymentTransactionID)
	record.Set("buyer_name", p.Buyer.Name)
	record.Set("buyer_email", p.Buyer.Email)
	record.Set("buyer_phone", p.Buyer.Phone)

	items, _ := json.Marshal(p.Items)
	record.Set("items", string(items))

	if p.QRPayload != nil {
		payload, _ := json.Marshal(p.QRPayload)
		record.Set("qr_payload", string(payload))
	}
}
