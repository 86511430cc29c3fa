package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"

	"eventpass/config"
	"eventpass/internal/handlers"
	"eventpass/internal/services"
	"eventpass/internal/services/payhere"
	"eventpass/internal/store"
	"eventpass/monitoring"
	"eventpass/security"
	"eventpass/utils"

	_ "eventpass/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize the payment gateway client
	gateway := payhere.New(&cfg.PayHere)

	// Initialize PubNub
	var notifier services.Notifier
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUUID))
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	pbStore := store.NewPocketBaseStore(app)
	catalogService := services.NewCatalogService(pbStore, redisClient, cfg.CatalogCacheTTL)
	orderService := services.NewOrderService(pbStore)
	paymentService := services.NewPaymentService(pbStore, gateway)
	reconcileService := services.NewReconcileService(pbStore, gateway, notifier, cfg.PendingOrderTTL)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	orderHandler := handlers.NewOrderHandler(orderService, paymentService, reconcileService)
	paymentHandler := handlers.NewPaymentHandler(reconcileService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.CheckoutRateLimit)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Catalog endpoints
		e.Router.GET("/api/v1/events/{eventId}/purchasable", catalogHandler.GetPurchasableEvent)
		e.Router.POST("/api/v1/events/{eventId}/validate-selection", catalogHandler.PriceSelection)

		// Order endpoints
		orders := e.Router.Group("/api/v1/orders")
		orders.BindFunc(rateLimiter.CheckoutRateLimit())
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/{orderRef}", orderHandler.GetOrder)
		orders.POST("/{orderRef}/checkout", orderHandler.Checkout)
		orders.POST("/{orderRef}/cancel", orderHandler.CancelOrder)

		// PayHere callback endpoints. The payload's status code decides
		// the reconciliation path, so all three share a handler.
		e.Router.POST("/api/v1/payments/payhere/notify", paymentHandler.HandleCallback)
		e.Router.POST("/api/v1/payments/payhere/success", paymentHandler.HandleCallback)
		e.Router.POST("/api/v1/payments/payhere/failure", paymentHandler.HandleCallback)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		// Start background tasks once the app is bootstrapped
		go reconcileService.ExpireStalePending(ctx, cfg.ReaperInterval)

		if cfg.EnableMetrics {
			monitoring.NewMonitor(app)
			go serveMetrics(cfg.MetricsPort)
		}

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		return err
	}
	return nil
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
