package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Lucasantunesribeiro/korp-teste/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_processed_total",
		Help: "The total number of reservation requests processed",
	})
	messagesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_duplicate_total",
		Help: "The total number of redeliveries skipped by the dedup store",
	})
	messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_dropped_total",
		Help: "The total number of malformed messages dropped",
	})
)

// ReservationRequested is the inbound payload from the invoicing service.
// JSON keys are its wire contract.
type ReservationRequested struct {
	InvoiceID string          `json:"notaId"`
	Items     []RequestedItem `json:"itens"`
}

type RequestedItem struct {
	ProductID string `json:"produtoId"`
	Quantity  int    `json:"quantidade"`
}

type BatchReserver interface {
	ReserveBatch(ctx context.Context, params usecase.ReserveBatchParams) usecase.Result
}

type DedupStore interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

// Handler processes one reservation request. A nil return means the message
// is settled and must be acked — including business rejections and poison
// messages; only infrastructure errors propagate, and those end in a nack.
type Handler struct {
	reserver BatchReserver
	dedup    DedupStore
}

func NewHandler(reserver BatchReserver, dedup DedupStore) *Handler {
	return &Handler{
		reserver: reserver,
		dedup:    dedup,
	}
}

func (h *Handler) Handle(ctx context.Context, messageID string, body []byte) error {
	seen, err := h.dedup.Exists(ctx, messageID)
	if err != nil {
		return fmt.Errorf("check dedup store: %w", err)
	}
	if seen {
		slog.Info("message already processed, skipping", "message_id", messageID)
		messagesDuplicate.Inc()
		return nil
	}

	var ev ReservationRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		// Retrying cannot fix a malformed message; drop it.
		slog.Error("failed to decode reservation request, dropping",
			"message_id", messageID, "error", err)
		messagesDropped.Inc()
		return nil
	}

	if ev.InvoiceID == "" || len(ev.Items) == 0 {
		slog.Error("reservation request without invoice or items, dropping",
			"message_id", messageID)
		messagesDropped.Inc()
		return nil
	}

	items := make([]usecase.BatchItem, 0, len(ev.Items))
	for _, item := range ev.Items {
		items = append(items, usecase.BatchItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	slog.Info("processing reservation request",
		"message_id", messageID, "invoice_id", ev.InvoiceID, "items", len(items))

	// A rejected batch is a valid, already-recorded business outcome, not a
	// consumer error; the message is settled either way.
	result := h.reserver.ReserveBatch(ctx, usecase.ReserveBatchParams{
		InvoiceID: ev.InvoiceID,
		Items:     items,
	})
	if result.Success {
		slog.Info("all reservations created", "invoice_id", ev.InvoiceID)
	} else {
		slog.Warn("reservation batch rejected",
			"invoice_id", ev.InvoiceID, "code", string(result.Code), "reason", result.Message)
	}

	if err := h.dedup.MarkProcessed(ctx, messageID); err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}

	messagesProcessed.Inc()
	return nil
}
