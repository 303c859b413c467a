package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/outbox"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "publisher_outbox_events_published_total",
		Help: "The total number of outbox events published to the broker",
	})
	publishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "publisher_outbox_publish_errors_total",
		Help: "The total number of failed publish attempts",
	})
)

const (
	pollInterval = 2 * time.Second
	batchSize    = 10
)

// BrokerChannel is one batch's publishing session.
type BrokerChannel interface {
	Publish(ctx context.Context, routingKey, messageID string, occurredAt time.Time, body []byte) error
	Close() error
}

// OutboxPoller drains pending outbox events to the broker on a fixed
// interval. A failed tick is logged and the loop carries on; lost ticks only
// delay delivery.
type OutboxPoller struct {
	events      outbox.Repository
	openChannel func() (BrokerChannel, error)
}

func NewOutboxPoller(events outbox.Repository, openChannel func() (BrokerChannel, error)) *OutboxPoller {
	return &OutboxPoller{
		events:      events,
		openChannel: openChannel,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	slog.Info("outbox poller started", "interval", pollInterval.String(), "batch_size", batchSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				slog.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

func (p *OutboxPoller) processBatch(ctx context.Context) error {
	events, err := p.events.FetchPending(ctx, batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	// One channel per batch, closed when the batch is done.
	ch, err := p.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	var publishedIDs, failedIDs []string

	for _, e := range events {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := ch.Publish(pubCtx, e.EventType, e.ID, e.OccurredAt, e.Payload)
		cancel()

		if err != nil {
			slog.Error("failed to publish event",
				"event_id", e.ID, "event_type", e.EventType, "attempts", e.Attempts+1, "error", err)
			publishErrors.Inc()
			failedIDs = append(failedIDs, e.ID)
			continue
		}

		slog.Info("event published",
			"event_id", e.ID, "event_type", e.EventType, "aggregate_id", e.AggregateID)
		eventsPublished.Inc()
		publishedIDs = append(publishedIDs, e.ID)
	}

	if len(publishedIDs) > 0 {
		if err := p.events.MarkPublished(ctx, publishedIDs, time.Now().UTC()); err != nil {
			return err
		}
	}

	if len(failedIDs) > 0 {
		if err := p.events.MarkAttempted(ctx, failedIDs); err != nil {
			return err
		}
	}

	return nil
}
