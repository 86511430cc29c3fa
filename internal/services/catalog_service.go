package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"eventpass/internal/status"
	"eventpass/internal/store"
	"eventpass/models"
	"eventpass/utils"
)

// CatalogService serves the read-only purchasable view of an event. Views
// are cached in Redis for a short TTL behind a circuit breaker; when the
// cache is unavailable the service falls back to direct database reads.
// Catalog reads are advisory: availability can be stale by the time a
// reservation attempt runs.
type CatalogService struct {
	store    store.Store
	redis    *redis.Client
	cacheTTL time.Duration
	breaker  *utils.CircuitBreaker
}

func NewCatalogService(st store.Store, redisClient *redis.Client, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:    st,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		breaker:  utils.NewCircuitBreaker("catalog-cache"),
	}
}

func (s *CatalogService) GetPurchasableEvent(ctx context.Context, eventID string) (*models.PurchasableEvent, error) {
	if view := s.cachedView(ctx, eventID); view != nil {
		return view, nil
	}

	view, err := s.buildView(ctx, eventID, time.Now())
	if err != nil {
		return nil, err
	}

	s.storeView(ctx, eventID, view)
	return view, nil
}

// PriceSelection runs the advisory validation for a selection against a
// fresh (uncached) read. The same validation is re-run inside the
// reservation transaction at order time.
func (s *CatalogService) PriceSelection(ctx context.Context, eventID string, sel Selection) (*PricedSelection, error) {
	now := time.Now()

	event, err := s.purchasableEvent(ctx, s.store, eventID, now)
	if err != nil {
		return nil, err
	}

	types, err := s.store.TicketTypesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return ValidateSelection(event, types, sel, now)
}

func (s *CatalogService) buildView(ctx context.Context, eventID string, now time.Time) (*models.PurchasableEvent, error) {
	event, err := s.purchasableEvent(ctx, s.store, eventID, now)
	if err != nil {
		return nil, err
	}

	types, err := s.store.TicketTypesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	view := &models.PurchasableEvent{Event: *event}
	for _, tt := range types {
		if tt.Status == models.TicketStatusInactive {
			continue
		}
		view.Tickets = append(view.Tickets, models.PurchasableTicket{
			TicketType:      tt,
			AvailableCount:  tt.Available(),
			IsAvailableFlag: tt.IsAvailable(),
			SaleActiveFlag:  tt.SaleActive(now),
		})
	}
	return view, nil
}

func (s *CatalogService) purchasableEvent(ctx context.Context, st store.Store, eventID string, now time.Time) (*models.Event, error) {
	event, err := st.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusPublished {
		return nil, status.ErrEventNotFound
	}
	if event.Ended(now) {
		return nil, status.ErrEventExpired
	}
	return event, nil
}

func (s *CatalogService) cachedView(ctx context.Context, eventID string) *models.PurchasableEvent {
	if s.redis == nil {
		return nil
	}

	// A miss is not a cache failure; only real errors count against the
	// breaker.
	raw, err := s.breaker.Execute(ctx, func() (any, error) {
		val, err := s.redis.Get(ctx, catalogCacheKey(eventID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		if !errors.Is(err, utils.ErrBreakerOpen) {
			slog.Warn("catalog cache read failed", "event_id", eventID, "error", err)
		}
		return nil
	}

	cached, ok := raw.(string)
	if !ok || cached == "" {
		return nil
	}

	view := &models.PurchasableEvent{}
	if err := json.Unmarshal([]byte(cached), view); err != nil {
		return nil
	}
	return view
}

func (s *CatalogService) storeView(ctx context.Context, eventID string, view *models.PurchasableEvent) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		return
	}

	_, err = s.breaker.Execute(ctx, func() (any, error) {
		return nil, s.redis.Set(ctx, catalogCacheKey(eventID), data, s.cacheTTL).Err()
	})
	if err != nil && err != utils.ErrBreakerOpen {
		slog.Warn("catalog cache write failed", "event_id", eventID, "error", err)
	}
}

func catalogCacheKey(eventID string) string {
	return fmt.Sprintf("catalog:purchasable:%s", eventID)
}
