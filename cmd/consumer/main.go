package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lucasantunesribeiro/korp-teste/internal/application/factories/infrastructure"
	"github.com/Lucasantunesribeiro/korp-teste/internal/config"
	"github.com/Lucasantunesribeiro/korp-teste/internal/consumer"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/rabbitmq"
	"github.com/Lucasantunesribeiro/korp-teste/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The broker can take minutes to come up in a multi-container deployment.
const brokerDialAttempts = 30

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

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("consumer metrics listening on :9091")
		http.ListenAndServe(":9091", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	productRepo := postgres.NewProductRepository(pgPool)
	reservationRepo := postgres.NewReservationRepository(pgPool)
	outboxRepo := postgres.NewOutboxRepository(pgPool)
	processedRepo := postgres.NewProcessedMessageRepository(pgPool)
	txManager := postgres.NewTxManager(pgPool)

	reserveUC := usecase.NewReserveStock(txManager, productRepo, reservationRepo, outboxRepo)

	conn, err := rabbitmq.Dial(ctx, cfg.RabbitMQ.URL, brokerDialAttempts)
	if err != nil {
		// Fatal but non-crashing: a crash loop would just hammer the broker.
		// The process stays up (and observable) until it is shut down.
		logger.Error("could not connect to rabbitmq, consumer staying idle", "error", err)
		<-ctx.Done()
		return
	}
	defer conn.Close()

	source, err := rabbitmq.NewConsumer(conn, rabbitmq.ConsumerConfig{
		Exchange:   cfg.RabbitMQ.InboundExchange,
		Queue:      cfg.RabbitMQ.Queue,
		BindingKey: cfg.RabbitMQ.BindingKey,
	})
	if err != nil {
		logger.Error("failed to set up consumer", "error", err)
		os.Exit(1)
	}
	defer source.Close()

	logger.Info("listening for reservation requests",
		"exchange", cfg.RabbitMQ.InboundExchange, "binding_key", cfg.RabbitMQ.BindingKey)

	handler := consumer.NewHandler(reserveUC, processedRepo)
	runner := consumer.NewRunner(source, handler)

	if err := runner.Run(ctx); err != nil {
		logger.Error("consumer stopped with error", "error", err)
	}

	logger.Info("consumer exited")
}
