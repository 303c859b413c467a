package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConsumerConfig struct {
	Exchange   string
	Queue      string
	BindingKey string
}

// Consumer owns the channel bound to the reservation-request queue. Prefetch
// is 1: the broker delivers the next message only after the current one is
// acknowledged.
type Consumer struct {
	ch    *amqp.Channel
	queue string
}

func NewConsumer(conn *amqp.Connection, cfg ConsumerConfig) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopicExchange(ch, cfg.Exchange); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	q, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	if err := ch.QueueBind(q.Name, cfg.BindingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", q.Name, cfg.BindingKey, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{ch: ch, queue: q.Name}, nil
}

// Deliveries starts consuming with manual acknowledgement.
func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	msgs, err := c.ch.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack off, ack manually
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consume: %w", err)
	}

	return msgs, nil
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
