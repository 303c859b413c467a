package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/outbox"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Create(ctx context.Context, e *outbox.Event) error {
	const sql = `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, occurred_at, published_at, attempts)
		VALUES ($1, $2, $3, $4, $5, NULL, 0)
	`

	_, err := executorFrom(ctx, r.pool).Exec(ctx, sql,
		e.ID, e.EventType, e.AggregateID, e.Payload, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}

// FetchPending returns the oldest unpublished events that still have publish
// attempts left, oldest-first.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	const sql = `
		SELECT id, event_type, aggregate_id, payload, occurred_at, published_at, attempts
		FROM outbox_events
		WHERE published_at IS NULL AND attempts < $2
		ORDER BY occurred_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, sql, limit, outbox.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []*outbox.Event
	for rows.Next() {
		e := &outbox.Event{}
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Payload, &e.OccurredAt, &e.PublishedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error {
	const sql = `
		UPDATE outbox_events
		SET published_at = $2, attempts = attempts + 1
		WHERE id = ANY($1)
	`

	if _, err := r.pool.Exec(ctx, sql, ids, publishedAt); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// MarkAttempted burns one publish attempt without marking the event
// published; events reaching the attempt cap stop being selected.
func (r *OutboxRepository) MarkAttempted(ctx context.Context, ids []string) error {
	const sql = `
		UPDATE outbox_events
		SET attempts = attempts + 1
		WHERE id = ANY($1)
	`

	if _, err := r.pool.Exec(ctx, sql, ids); err != nil {
		return fmt.Errorf("mark attempted: %w", err)
	}
	return nil
}

func (r *OutboxRepository) ListByAggregateID(ctx context.Context, aggregateID string) ([]*outbox.Event, error) {
	const sql = `
		SELECT id, event_type, aggregate_id, payload, occurred_at, published_at, attempts
		FROM outbox_events
		WHERE aggregate_id = $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.pool.Query(ctx, sql, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("query outbox events by aggregate: %w", err)
	}
	defer rows.Close()

	var events []*outbox.Event
	for rows.Next() {
		e := &outbox.Event{}
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Payload, &e.OccurredAt, &e.PublishedAt, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}
