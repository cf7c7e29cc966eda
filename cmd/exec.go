package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"ticket-ledger/config"
	"ticket-ledger/handlers"
	_ "ticket-ledger/migrations"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/services"
	"ticket-ledger/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize the ledger
	store := services.NewLedgerStore(redisClient)
	notifier := services.NewLedgerNotifier(app, pn)
	ledger := services.NewLedgerService(store, notifier, cfg)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(app, ledger)
	ticketHandler := handlers.NewTicketHandler(app, ledger)
	adminHandler := handlers.NewAdminHandler(app, ledger, redisClient, cfg)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitBudget)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore the authoritative ledger state before serving. A corrupt
	// snapshot is fatal: serving from partial state would break the
	// counters-vs-records invariants.
	if err := ledger.LoadFromStore(ctx); err != nil {
		log.Fatalf("Failed to restore ledger state: %v", err)
	}
	slog.Info("ledger state restored",
		"events", ledger.GetEventCount(),
		"tickets", ledger.GetTicketCount(),
	)

	// Start metrics collection
	monitor := monitoring.NewMonitor(cfg.StatsInterval, func() monitoring.LedgerStats {
		stats := ledger.Stats()
		return monitoring.LedgerStats{
			Events:        stats.Events,
			Tickets:       stats.Tickets,
			OpenEvents:    stats.OpenEvents,
			EscrowTotal:   stats.EscrowTotal,
			BalancesTotal: stats.BalancesTotal,
		}
	})
	go monitor.Run(ctx)

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort)
	}

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		limit := rateLimiter.LedgerRateLimit()

		// Event operations
		e.Router.POST("/api/ledger/events", eventHandler.CreateEvent).BindFunc(limit)
		e.Router.GET("/api/ledger/events/count", eventHandler.GetEventCount)
		e.Router.GET("/api/ledger/events/{eventId}", eventHandler.GetEvent)
		e.Router.POST("/api/ledger/events/{eventId}/cancel", eventHandler.CancelEvent).BindFunc(limit)
		e.Router.POST("/api/ledger/events/{eventId}/complete", eventHandler.CompleteEvent).BindFunc(limit)
		e.Router.POST("/api/ledger/events/{eventId}/withdraw", eventHandler.WithdrawEarnings).BindFunc(limit)

		// Ticket operations
		e.Router.POST("/api/ledger/tickets/buy", ticketHandler.BuyTicket).BindFunc(limit)
		e.Router.GET("/api/ledger/tickets/count", ticketHandler.GetTicketCount)
		e.Router.GET("/api/ledger/tickets/{ticketId}", ticketHandler.GetTicket)
		e.Router.POST("/api/ledger/tickets/{ticketId}/transfer", ticketHandler.TransferTicket).BindFunc(limit)
		e.Router.POST("/api/ledger/tickets/{ticketId}/cancel", ticketHandler.CancelTicket).BindFunc(limit)
		e.Router.POST("/api/ledger/tickets/{ticketId}/refund", ticketHandler.RefundTicket).BindFunc(limit)
		e.Router.POST("/api/ledger/tickets/{ticketId}/use", ticketHandler.UseTicket).BindFunc(limit)
		e.Router.GET("/api/ledger/my-tickets", ticketHandler.GetMyTickets)
		e.Router.GET("/api/ledger/balance", ticketHandler.GetBalance)

		// Admin endpoints
		e.Router.GET("/api/admin/ledger-dashboard", adminHandler.GetLedgerDashboard)
		e.Router.GET("/api/admin/ledger-log", adminHandler.GetLedgerLog)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}
