package postgres

import (
	"context"
	"fmt"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/reservation"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	const sql = `
		INSERT INTO reservations (id, invoice_id, product_id, quantity, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := executorFrom(ctx, r.pool).Exec(ctx, sql,
		res.ID, res.InvoiceID, res.ProductID, res.Quantity, res.Status, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	return nil
}

func (r *ReservationRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*reservation.Reservation, error) {
	const sql = `
		SELECT id, invoice_id, product_id, quantity, status, created_at
		FROM reservations
		WHERE invoice_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, sql, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*reservation.Reservation
	for rows.Next() {
		res := &reservation.Reservation{}
		if err := rows.Scan(&res.ID, &res.InvoiceID, &res.ProductID, &res.Quantity, &res.Status, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, nil
}
