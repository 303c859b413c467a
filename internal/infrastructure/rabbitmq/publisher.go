package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes outbox events to a durable topic exchange. A fresh
// channel is opened per batch and closed when the batch is done.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) *Publisher {
	return &Publisher{conn: conn, exchange: exchange}
}

func (p *Publisher) OpenChannel() (*Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopicExchange(ch, p.exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	return &Channel{ch: ch, exchange: p.exchange}, nil
}

type Channel struct {
	ch       *amqp.Channel
	exchange string
}

// Publish sends one event. The message id is the outbox event id so
// downstream consumers can deduplicate redeliveries.
func (c *Channel) Publish(ctx context.Context, routingKey, messageID string, occurredAt time.Time, body []byte) error {
	return c.ch.PublishWithContext(ctx,
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    occurredAt,
			Body:         body,
		},
	)
}

func (c *Channel) Close() error {
	return c.ch.Close()
}
