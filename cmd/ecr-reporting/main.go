package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/powerwolf1/bigData/config"
	deliveryhttp "github.com/powerwolf1/bigData/delivery/http"
	"github.com/powerwolf1/bigData/delivery/http/handlers"
	"github.com/powerwolf1/bigData/infrastructure/database"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/usecase"
)

func main() {
	configPath := flag.String("config", "./config", "path to configuration directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Logging
	if logCfg.ServiceName == "" {
		logCfg.ServiceName = cfg.Service.Name
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	logger.Info("Starting service",
		logging.String("version", cfg.Service.Version),
		logging.String("environment", cfg.Service.Environment))

	collector := metrics.NewCollector(cfg.Metrics.Namespace)

	client, err := database.NewClient(cfg.Database.MongoDB, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	orgs := database.NewMongoOrganizationRepository(client, logger, collector)
	devices := database.NewMongoDeviceRepository(client, logger, collector)
	summaries := database.NewMongoSummaryRepository(client, logger, collector)
	receipts := database.NewMongoReceiptRepository(client, logger, collector)
	lineItems := database.NewMongoLineItemRepository(client, logger, collector)
	aggregates := database.NewMongoAggregateRepository(client, logger, collector)
	parsedWriter := database.NewMongoParsedWriter(client, logger, collector)
	documents := database.NewMongoDocumentStore(client, logger, collector)
	analytics := database.NewMongoAnalyticsRepository(client, logger, collector)

	parseUC := usecase.NewParseUsecase(summaries, receipts, lineItems, parsedWriter, logger, collector)
	reconcileUC := usecase.NewReconcileUsecase(
		orgs, devices, summaries, receipts, lineItems, aggregates,
		logger, collector, cfg.Reconciliation.StopOnFirstFailure)
	exportUC := usecase.NewExportUsecase(aggregates, logger, collector)

	router := deliveryhttp.NewRouter(cfg, logger, collector, deliveryhttp.Handlers{
		Health:    handlers.NewHealthHandler(client, logger, cfg.Service.Version),
		Pipeline:  handlers.NewPipelineHandler(parseUC, reconcileUC, logger),
		Documents: handlers.NewDocumentsHandler(documents, summaries, receipts, lineItems, logger),
		Analytics: handlers.NewAnalyticsHandler(analytics, devices, logger),
		Export:    handlers.NewExportHandler(exportUC, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", logging.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := client.Close(ctx); err != nil {
		logger.WithError(err).Error("MongoDB shutdown failed")
	}

	logger.Info("Shutdown complete")
}
