package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/buildunia/commerce/internal/config"
	"github.com/buildunia/commerce/internal/gateway"
	"github.com/buildunia/commerce/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config.Gateway
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	storefrontProxy := gateway.NewServiceProxy(cfg.StorefrontURL, httpClient)
	catalogProxy := gateway.NewServiceProxy(cfg.CatalogURL, httpClient)
	handler := gateway.NewHandler(storefrontProxy, catalogProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /csrf-token", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /cart/limits", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("PATCH /cart/items/{productId}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("DELETE /cart/items/{productId}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /checkout", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /checkout/review", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /checkout/shipping", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /checkout/back", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /orders/create", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /orders/verify-payment", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("POST /orders/dismiss-payment", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleStorefront))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleStorefront))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "gateway",
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
		logger.Info("starting gateway service", "port", cfg.Port)
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
