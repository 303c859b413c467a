package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types double as broker routing keys; the names are part of the wire
// contract with the invoicing service.
const (
	TypeStockReserved       = "Estoque.Reservado"
	TypeReservationRejected = "Estoque.ReservaRejeitada"
)

// MaxAttempts bounds publish retries. An event that fails this many times is
// skipped by the poller and must be surfaced operationally.
const MaxAttempts = 5

// Event is a to-be-published domain event written in the same transaction as
// the state change it describes. PublishedAt is set at most once; Attempts
// only increases.
type Event struct {
	ID          string     `json:"id"`
	EventType   string     `json:"event_type"`
	AggregateID string     `json:"aggregate_id"`
	Payload     []byte     `json:"payload"`
	OccurredAt  time.Time  `json:"occurred_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Attempts    int        `json:"attempts"`
}

type Repository interface {
	Create(ctx context.Context, event *Event) error
	FetchPending(ctx context.Context, limit int) ([]*Event, error)
	MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error
	MarkAttempted(ctx context.Context, ids []string) error
	ListByAggregateID(ctx context.Context, aggregateID string) ([]*Event, error)
}

// ReservedItem is one line of a StockReserved payload. JSON keys follow the
// invoicing service's contract.
type ReservedItem struct {
	ProductID string `json:"produtoId"`
	Quantity  int    `json:"quantidade"`
}

type stockReservedPayload struct {
	InvoiceID string         `json:"notaId"`
	ProductID string         `json:"produtoId,omitempty"`
	Quantity  int            `json:"quantidade,omitempty"`
	Items     []ReservedItem `json:"itens,omitempty"`
}

type reservationRejectedPayload struct {
	InvoiceID string `json:"notaId"`
	Reason    string `json:"motivo"`
}

func NewStockReserved(invoiceID, productID string, quantity int) (*Event, error) {
	return newEvent(TypeStockReserved, invoiceID, stockReservedPayload{
		InvoiceID: invoiceID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

func NewStockReservedBatch(invoiceID string, items []ReservedItem) (*Event, error) {
	return newEvent(TypeStockReserved, invoiceID, stockReservedPayload{
		InvoiceID: invoiceID,
		Items:     items,
	})
}

func NewReservationRejected(invoiceID, reason string) (*Event, error) {
	return newEvent(TypeReservationRejected, invoiceID, reservationRejectedPayload{
		InvoiceID: invoiceID,
		Reason:    reason,
	})
}

func newEvent(eventType, aggregateID string, payload any) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		ID:          uuid.New().String(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
		OccurredAt:  time.Now().UTC(),
	}, nil
}
