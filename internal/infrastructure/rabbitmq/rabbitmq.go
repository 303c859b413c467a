package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial connects to the broker with a bounded retry. The broker routinely
// starts slower than this service in a multi-container deployment, so the
// retry is aggressive: first wait 3s, then 5s between attempts.
func Dial(ctx context.Context, url string, attempts int) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}

		slog.Warn("rabbitmq connection failed", "attempt", attempt, "max", attempts, "error", err)

		if attempt == attempts {
			break
		}

		delay := 5 * time.Second
		if attempt == 1 {
			delay = 3 * time.Second
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", attempts, err)
}

func declareTopicExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}
