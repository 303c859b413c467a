package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedMessageRepository is the consumer-side dedup ledger. Rows are
// written once and never updated or pruned.
type ProcessedMessageRepository struct {
	pool *pgxpool.Pool
}

func NewProcessedMessageRepository(pool *pgxpool.Pool) *ProcessedMessageRepository {
	return &ProcessedMessageRepository{pool: pool}
}

func (r *ProcessedMessageRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, sql, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed message: %w", err)
	}

	return exists, nil
}

// MarkProcessed records a message id, ignoring duplicates from concurrent
// redeliveries.
func (r *ProcessedMessageRepository) MarkProcessed(ctx context.Context, messageID string) error {
	const sql = `
		INSERT INTO processed_messages (message_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (message_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, sql, messageID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert processed message: %w", err)
	}

	return nil
}
