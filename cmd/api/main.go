package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lucasantunesribeiro/korp-teste/internal/api"
	"github.com/Lucasantunesribeiro/korp-teste/internal/application/factories/infrastructure"
	"github.com/Lucasantunesribeiro/korp-teste/internal/config"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
	"github.com/Lucasantunesribeiro/korp-teste/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		// The API degrades gracefully without the cache.
		logger.Warn("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	// Repositories
	productRepo := postgres.NewProductRepository(pgPool)
	reservationRepo := postgres.NewReservationRepository(pgPool)
	outboxRepo := postgres.NewOutboxRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	// UseCases
	reserveUC := usecase.NewReserveStock(txManager, productRepo, reservationRepo, outboxRepo)
	createProductUC := usecase.NewCreateProduct(productRepo)
	getProductUC := usecase.NewGetProduct(redisClient, productRepo)
	listProductsUC := usecase.NewListProducts(productRepo)
	activityUC := usecase.NewInvoiceActivity(reservationRepo, outboxRepo)

	handlers := api.NewHandlers(reserveUC, createProductUC, getProductUC, listProductsUC, activityUC)
	apiHandler := api.NewRouter(handlers, redisClient)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: apiHandler,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}
