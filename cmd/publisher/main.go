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
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/rabbitmq"
	"github.com/Lucasantunesribeiro/korp-teste/internal/publisher"

	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info("publisher metrics listening on :9092")
		http.ListenAndServe(":9092", mux)
	}()

	infraFactory := infrastructure.NewFactory(cfg)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}

	conn, err := rabbitmq.Dial(ctx, cfg.RabbitMQ.URL, 5)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	outboxRepo := postgres.NewOutboxRepository(pgPool)
	broker := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.OutboundExchange)

	poller := publisher.NewOutboxPoller(outboxRepo, func() (publisher.BrokerChannel, error) {
		return broker.OpenChannel()
	})

	if err := poller.Run(ctx); err != nil {
		logger.Error("poller stopped with error", "error", err)
	}

	logger.Info("publisher exited")
}
