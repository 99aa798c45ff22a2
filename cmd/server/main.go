package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/catalog"
	"github.com/rmachado/storefront/internal/config"
	"github.com/rmachado/storefront/internal/messaging"
	"github.com/rmachado/storefront/internal/orders"
	"github.com/rmachado/storefront/internal/payment"
	"github.com/rmachado/storefront/internal/telemetry"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	providers, err := telemetry.Setup(ctx, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = providers.Shutdown(ctx) }()

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
	}

	accounts := auth.NewAccountRepository(db)
	products := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	images := catalog.NewImageStore(cfg.UploadDir)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	intents := payment.NewStripeIntents(cfg.StripeSecretKey, cfg.Currency)

	dev := cfg.Dev()
	authHandler := auth.NewHandler(accounts, tokens, logger, !dev, dev)
	authMW := auth.NewMiddleware(tokens, accounts, logger, dev)
	catalogHandler := catalog.NewHandler(products, images, logger, dev)
	paymentHandler := payment.NewHandler(intents, logger, dev)
	webhookHandler := payment.NewWebhookHandler(orderRepo, cfg.StripeWebhookSecret, logger, dev)

	var publisher orders.EventPublisher
	if producer != nil {
		publisher = producer
	}
	orderHandler := orders.NewHandler(orderRepo, publisher, logger, dev)

	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc, wraps ...func(http.Handler) http.Handler) {
		var handler http.Handler = telemetry.WithHTTPRoute(h)
		for i := len(wraps) - 1; i >= 0; i-- {
			handler = wraps[i](handler)
		}
		mux.Handle(pattern, handler)
	}

	route("POST /api/auth/login", authHandler.HandleLogin)
	route("POST /api/auth/logout", authHandler.HandleLogout)
	route("GET /api/auth/me", authHandler.HandleMe, authMW.Authenticate)

	route("GET /api/products", catalogHandler.HandleList)
	route("GET /api/products/{id}", catalogHandler.HandleGet)
	route("POST /api/products", catalogHandler.HandleCreate, authMW.Authenticate, authMW.RequireAdmin)
	route("PUT /api/products/{id}", catalogHandler.HandleUpdate, authMW.Authenticate, authMW.RequireAdmin)
	route("DELETE /api/products/{id}", catalogHandler.HandleDelete, authMW.Authenticate, authMW.RequireAdmin)

	route("POST /api/checkout/create-payment-intent", paymentHandler.HandleCreateIntent, authMW.Authenticate)
	route("POST /api/orders", orderHandler.HandleCreate, authMW.Authenticate)
	route("GET /api/orders/my-orders", orderHandler.HandleMyOrders, authMW.Authenticate)
	route("GET /api/orders/{id}", orderHandler.HandleGet, authMW.Authenticate)

	// provider callback, authenticated by its signature header instead of a session
	route("POST /api/orders/webhook", webhookHandler.HandleWebhook)

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	mux.Handle("GET /metrics", providers.MetricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			api.WriteJSON(w, logger, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
			return
		}
		api.WriteJSON(w, logger, http.StatusOK, map[string]any{"status": "ok"})
	})

	var handler http.Handler = mux
	handler = api.CORS(cfg.CORSOrigins)(handler)
	handler = api.Recover(logger, dev)(handler)
	handler = otelhttp.NewHandler(handler, serviceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method + " " + r.URL.Path
		}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
