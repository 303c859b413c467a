package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type DeliverySource interface {
	Deliveries() (<-chan amqp.Delivery, error)
}

// Runner drives the handler from broker deliveries and owns the ack/nack
// decision: handler success acks, handler failure nacks without requeue so
// the broker dead-letters the message instead of stalling the queue.
type Runner struct {
	source  DeliverySource
	handler *Handler
}

func NewRunner(source DeliverySource, handler *Handler) *Runner {
	return &Runner{
		source:  source,
		handler: handler,
	}
}

func (r *Runner) Run(ctx context.Context) error {
	msgs, err := r.source.Deliveries()
	if err != nil {
		return fmt.Errorf("start deliveries: %w", err)
	}

	slog.Info("consumer started, waiting for reservation requests")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}

			messageID := d.MessageId
			if messageID == "" {
				messageID = fmt.Sprintf("delivery-%d", d.DeliveryTag)
			}

			if err := r.handler.Handle(ctx, messageID, d.Body); err != nil {
				slog.Error("failed to process message", "message_id", messageID, "error", err)
				if nackErr := d.Nack(false, false); nackErr != nil {
					slog.Error("failed to nack message", "message_id", messageID, "error", nackErr)
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				slog.Error("failed to ack message", "message_id", messageID, "error", err)
			}
		}
	}
}
