package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"printroom-fulfillment/internal/client"
	"printroom-fulfillment/internal/config"
	"printroom-fulfillment/internal/repository"
	"printroom-fulfillment/internal/server"
	"printroom-fulfillment/internal/service"
	"printroom-fulfillment/internal/telemetry"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	// an unsigned vendor webhook endpoint is acceptable in development only
	if cfg.Environment.IsProduction() && cfg.Vendor.WebhookSecret == "" {
		log.Fatal("VENDOR_WEBHOOK_SECRET must be set in production")
	}

	telemetry.InitLogger(cfg.Log)

	db := client.InitSqliteClient(cfg.DatabaseURL)
	processorClient := client.NewProcessorClient(&cfg.Processor)
	vendorClient := client.NewVendorClient(&cfg.Vendor)

	orderRepo := repository.NewOrderRepository(db)
	priceSheetRepo := repository.NewPriceSheetRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	ledger := service.NewLedgerService(orderRepo)
	fulfillmentService := service.NewFulfillmentService(vendorClient, ledger, orderRepo)
	paymentService := service.NewPaymentService(
		processorClient,
		fulfillmentService,
		ledger,
		orderRepo,
		webhookEventRepo,
	)
	checkoutService := service.NewCheckoutService(
		db,
		processorClient,
		vendorClient,
		cfg.BaseURL,
		orderRepo,
		priceSheetRepo,
	)
	orderService := service.NewOrderService(orderRepo)
	priceSheetService := service.NewPriceSheetService(priceSheetRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(
		paymentService,
		fulfillmentService,
		checkoutService,
		orderService,
		priceSheetService,
	)

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
