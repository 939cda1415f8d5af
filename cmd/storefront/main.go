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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/catalog"
	"github.com/buildunia/commerce/internal/checkout"
	"github.com/buildunia/commerce/internal/config"
	"github.com/buildunia/commerce/internal/httpx"
	"github.com/buildunia/commerce/internal/kv"
	"github.com/buildunia/commerce/internal/messaging"
	"github.com/buildunia/commerce/internal/orders"
	"github.com/buildunia/commerce/internal/payment"
	"github.com/buildunia/commerce/internal/telemetry"
)

const (
	cartTTL    = 30 * 24 * time.Hour
	sessionTTL = 24 * time.Hour
	csrfTTL    = 2 * time.Hour
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config.Storefront
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := otelruntime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	store := kv.NewRedisStore(redisClient)
	carts := cart.NewStore(store, cartTTL, logger)
	sessions := checkout.NewSessionStore(store, sessionTTL)
	csrf := httpx.NewCSRFGuard(store, csrfTTL, logger)

	var publisher checkout.EventPublisher
	if brokers := config.Brokers(cfg.KafkaBrokers); brokers != nil {
		producer := messaging.NewProducer(brokers, messaging.TopicOrderPaid)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	products := catalog.NewClient(cfg.CatalogURL, httpClient)
	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, httpClient)
	signer := payment.NewSigner(cfg.GatewayKeySecret)

	repo := orders.NewRepository(db)
	service := checkout.NewService(repo, gateway, cfg.GatewayKeyID, signer, carts, sessions, publisher, logger)

	cartHandler := cart.NewHandler(carts, products, logger)
	checkoutHandler := checkout.NewHandler(service, carts, sessions, logger)
	orderHandler := orders.NewHandler(repo, logger)

	mux := http.NewServeMux()

	user := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(httpx.RequireUser(logger, h))
	}
	mutating := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(httpx.RequireUser(logger, csrf.Protect(h)))
	}

	mux.HandleFunc("GET /csrf-token", user(csrf.HandleIssueToken))

	mux.HandleFunc("GET /cart", user(cartHandler.HandleGet))
	mux.HandleFunc("GET /cart/limits", user(cartHandler.HandleGetLimits))
	mux.HandleFunc("POST /cart/items", mutating(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{productId}", mutating(cartHandler.HandleUpdateItem))
	mux.HandleFunc("DELETE /cart/items/{productId}", mutating(cartHandler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", mutating(cartHandler.HandleClear))

	mux.HandleFunc("GET /checkout", user(checkoutHandler.HandleGetSession))
	mux.HandleFunc("POST /checkout/review", mutating(checkoutHandler.HandleReviewCart))
	mux.HandleFunc("POST /checkout/shipping", mutating(checkoutHandler.HandleSubmitShipping))
	mux.HandleFunc("POST /checkout/back", mutating(checkoutHandler.HandleBack))

	mux.HandleFunc("POST /orders/create", mutating(checkoutHandler.HandleCreateOrder))
	mux.HandleFunc("POST /orders/verify-payment", mutating(checkoutHandler.HandleVerifyPayment))
	mux.HandleFunc("POST /orders/dismiss-payment", mutating(checkoutHandler.HandleDismissPayment))

	mux.HandleFunc("GET /orders", user(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", user(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(httpx.RequireAdmin(logger, orderHandler.HandleUpdateStatus)))

	// Internal route for the fulfilment worker, reachable only inside the
	// service network.
	mux.HandleFunc("PATCH /internal/orders/{id}/status", telemetry.WithHTTPRoute(orderHandler.HandleUpdateStatus))

	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
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
