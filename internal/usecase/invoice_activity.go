package usecase

import (
	"context"
	"fmt"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/outbox"
	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/reservation"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
)

// ActivityDTO is what the invoicing UI polls while waiting for a print
// request to settle: the reservations recorded for the invoice plus the
// outbox events that tell it whether the result was published yet.
type ActivityDTO struct {
	InvoiceID    string                     `json:"invoice_id"`
	Reservations []*reservation.Reservation `json:"reservations"`
	Events       []*outbox.Event            `json:"events"`
}

type InvoiceActivity struct {
	reservations *postgres.ReservationRepository
	events       *postgres.OutboxRepository
}

func NewInvoiceActivity(reservations *postgres.ReservationRepository, events *postgres.OutboxRepository) *InvoiceActivity {
	return &InvoiceActivity{
		reservations: reservations,
		events:       events,
	}
}

func (uc *InvoiceActivity) Execute(ctx context.Context, invoiceID string) (*ActivityDTO, error) {
	reservations, err := uc.reservations.ListByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	events, err := uc.events.ListByAggregateID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list outbox events: %w", err)
	}

	return &ActivityDTO{
		InvoiceID:    invoiceID,
		Reservations: reservations,
		Events:       events,
	}, nil
}
