package monitoring

import (
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Order creation attempts by result",
		},
		[]string{"event_id", "result"},
	)

	paymentCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Processed payment gateway callbacks by outcome",
		},
		[]string{"outcome", "replay"},
	)

	inventoryReleases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_releases_total",
			Help: "Reserved ticket quantities returned to inventory",
		},
		[]string{"reason"},
	)

	reservationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_duration_seconds",
			Help:    "Duration of the reservation transaction",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	pendingPurchases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_purchases_total",
			Help: "Purchases currently awaiting a gateway outcome",
		},
	)

	ticketsSold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tickets_sold_total",
			Help: "Sum of sold counters across all ticket types",
		},
	)
)

func TrackOrderCreated(eventID, result string) {
	ordersCreated.WithLabelValues(eventID, result).Inc()
}

func TrackCallback(outcome string, replay bool) {
	replayLabel := "false"
	if replay {
		replayLabel = "true"
	}
	paymentCallbacks.WithLabelValues(outcome, replayLabel).Inc()
}

func TrackRelease(reason string, quantity int) {
	inventoryReleases.WithLabelValues(reason).Add(float64(quantity))
}

func ObserveReservation(d time.Duration) {
	reservationDuration.Observe(d.Seconds())
}

// Monitor periodically samples database-level gauges.
type Monitor struct {
	app core.App
}

func NewMonitor(app core.App) *Monitor {
	monitor := &Monitor{app: app}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectPurchaseMetrics()
		m.collectInventoryMetrics()
	}
}

func (m *Monitor) collectPurchaseMetrics() {
	var row struct {
		Count int `db:"count"`
	}
	err := m.app.DB().NewQuery(
		"SELECT COUNT(*) AS count FROM purchases WHERE payment_status = {:status}",
	).Bind(dbx.Params{"status": "pending"}).One(&row)
	if err != nil {
		return
	}
	pendingPurchases.Set(float64(row.Count))
}

func (m *Monitor) collectInventoryMetrics() {
	var row struct {
		Sold int `db:"sold"`
	}
	err := m.app.DB().NewQuery(
		"SELECT COALESCE(SUM(sold), 0) AS sold FROM ticket_types",
	).One(&row)
	if err != nil {
		return
	}
	ticketsSold.Set(float64(row.Sold))
}
