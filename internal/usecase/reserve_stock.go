package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/outbox"
	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"
	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/reservation"
)

var (
	// errSimulatedFailure is the explicit injected failure point: returned
	// after all writes are staged so the rollback path can be exercised
	// end to end.
	errSimulatedFailure = errors.New("simulated failure")

	// errBatchRejected aborts the batch transaction when one item's debit is
	// rejected; the rejection event is recorded afterwards in its own
	// transaction.
	errBatchRejected = errors.New("batch item rejected")
)

type Transactor interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type ProductStore interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	UpdateBalance(ctx context.Context, p *product.Product) error
}

type ReservationStore interface {
	Create(ctx context.Context, res *reservation.Reservation) error
}

type OutboxStore interface {
	Create(ctx context.Context, event *outbox.Event) error
}

// ReserveStock debits a product's balance and records the reservation and the
// matching outbox event inside one transaction. It is stateless and safe for
// concurrent use; conflicting debits to the same product are resolved by the
// storage layer's version check, not by in-process locking.
type ReserveStock struct {
	tx           Transactor
	products     ProductStore
	reservations ReservationStore
	events       OutboxStore
}

func NewReserveStock(tx Transactor, products ProductStore, reservations ReservationStore, events OutboxStore) *ReserveStock {
	return &ReserveStock{
		tx:           tx,
		products:     products,
		reservations: reservations,
		events:       events,
	}
}

type ReserveParams struct {
	InvoiceID string
	ProductID string
	Quantity  int

	// SimulateFailure aborts the transaction after all writes are staged.
	SimulateFailure bool
}

func (uc *ReserveStock) Reserve(ctx context.Context, params ReserveParams) Result {
	if params.Quantity <= 0 {
		return failed(FailureInvalidQuantity, "quantity must be positive")
	}

	var (
		created  *reservation.Reservation
		rejected *Result
	)

	err := uc.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		p, err := uc.products.GetByID(txCtx, params.ProductID)
		if err != nil {
			return err
		}

		if derr := p.DebitStock(params.Quantity); derr != nil {
			// The rejection itself is a fact worth recording: commit the
			// event even though the debit failed.
			ev, err := outbox.NewReservationRejected(params.InvoiceID, derr.Error())
			if err != nil {
				return err
			}
			if err := uc.events.Create(txCtx, ev); err != nil {
				return err
			}

			r := failureFromDebit(derr)
			rejected = &r
			return nil
		}

		if err := uc.products.UpdateBalance(txCtx, p); err != nil {
			return err
		}

		created = reservation.New(params.InvoiceID, params.ProductID, params.Quantity)
		if err := uc.reservations.Create(txCtx, created); err != nil {
			return err
		}

		ev, err := outbox.NewStockReserved(params.InvoiceID, params.ProductID, params.Quantity)
		if err != nil {
			return err
		}
		if err := uc.events.Create(txCtx, ev); err != nil {
			return err
		}

		if params.SimulateFailure {
			return errSimulatedFailure
		}

		return nil
	})

	switch {
	case err == nil:
		if rejected != nil {
			slog.Warn("stock debit rejected",
				"invoice_id", params.InvoiceID, "product_id", params.ProductID, "reason", rejected.Message)
			return *rejected
		}
		slog.Info("reservation created",
			"reservation_id", created.ID, "invoice_id", params.InvoiceID, "product_id", params.ProductID)
		return succeeded(created)

	case errors.Is(err, product.ErrNotFound):
		// Nothing happened, so there is nothing to record.
		return failed(FailureProductNotFound, "product not found")

	case errors.Is(err, errSimulatedFailure):
		return failed(FailureProcessingError, "simulated failure")

	case errors.Is(err, product.ErrVersionConflict):
		slog.Warn("concurrency conflict on reserve",
			"invoice_id", params.InvoiceID, "product_id", params.ProductID)
		uc.recordRejection(ctx, params.InvoiceID, "concurrency conflict")
		return failed(FailureConcurrencyConflict, "product was modified concurrently, retry")

	default:
		slog.Error("reserve failed", "invoice_id", params.InvoiceID, "error", err)
		uc.recordRejection(ctx, params.InvoiceID, err.Error())
		return failed(FailureProcessingError, fmt.Sprintf("failed to process reservation: %v", err))
	}
}

type BatchItem struct {
	ProductID string
	Quantity  int
}

type ReserveBatchParams struct {
	InvoiceID       string
	Items           []BatchItem
	SimulateFailure bool
}

// ReserveBatch reserves every item of an invoice in one transaction. Any
// single item's rejection rolls the whole batch back and records one
// rejection event describing the failing item.
func (uc *ReserveStock) ReserveBatch(ctx context.Context, params ReserveBatchParams) Result {
	if len(params.Items) == 0 {
		return failed(FailureInvalidQuantity, "batch must contain at least one item")
	}
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return failed(FailureInvalidQuantity,
				fmt.Sprintf("product %s: quantity must be positive", item.ProductID))
		}
	}

	var (
		created   []*reservation.Reservation
		rejection Result
		reason    string
	)

	err := uc.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		reservedItems := make([]outbox.ReservedItem, 0, len(params.Items))

		for _, item := range params.Items {
			p, err := uc.products.GetByID(txCtx, item.ProductID)
			if errors.Is(err, product.ErrNotFound) {
				rejection = failed(FailureProductNotFound,
					fmt.Sprintf("product %s not found", item.ProductID))
				reason = rejection.Message
				return errBatchRejected
			}
			if err != nil {
				return err
			}

			if derr := p.DebitStock(item.Quantity); derr != nil {
				rejection = failureFromDebit(derr)
				reason = fmt.Sprintf("product %s: %v", item.ProductID, derr)
				rejection.Message = reason
				return errBatchRejected
			}

			if err := uc.products.UpdateBalance(txCtx, p); err != nil {
				return err
			}

			res := reservation.New(params.InvoiceID, item.ProductID, item.Quantity)
			if err := uc.reservations.Create(txCtx, res); err != nil {
				return err
			}

			created = append(created, res)
			reservedItems = append(reservedItems, outbox.ReservedItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		ev, err := outbox.NewStockReservedBatch(params.InvoiceID, reservedItems)
		if err != nil {
			return err
		}
		if err := uc.events.Create(txCtx, ev); err != nil {
			return err
		}

		if params.SimulateFailure {
			return errSimulatedFailure
		}

		return nil
	})

	switch {
	case err == nil:
		slog.Info("batch reservation created",
			"invoice_id", params.InvoiceID, "items", len(created))
		return succeededBatch(created)

	case errors.Is(err, errBatchRejected):
		slog.Warn("batch reservation rejected", "invoice_id", params.InvoiceID, "reason", reason)
		uc.recordRejection(ctx, params.InvoiceID, reason)
		return rejection

	case errors.Is(err, errSimulatedFailure):
		return failed(FailureProcessingError, "simulated failure")

	case errors.Is(err, product.ErrVersionConflict):
		slog.Warn("concurrency conflict on batch reserve", "invoice_id", params.InvoiceID)
		uc.recordRejection(ctx, params.InvoiceID, "concurrency conflict")
		return failed(FailureConcurrencyConflict, "product was modified concurrently, retry")

	default:
		slog.Error("batch reserve failed", "invoice_id", params.InvoiceID, "error", err)
		uc.recordRejection(ctx, params.InvoiceID, err.Error())
		return failed(FailureProcessingError, fmt.Sprintf("failed to process reservation: %v", err))
	}
}

// recordRejection durably records a rejection after the primary transaction
// aborted. It always opens its own transaction; if even that fails, the
// secondary failure is logged and swallowed so the caller only ever sees the
// original failure.
func (uc *ReserveStock) recordRejection(ctx context.Context, invoiceID, reason string) {
	err := uc.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		ev, err := outbox.NewReservationRejected(invoiceID, reason)
		if err != nil {
			return err
		}
		return uc.events.Create(txCtx, ev)
	})
	if err != nil {
		slog.Error("failed to record rejection event", "invoice_id", invoiceID, "error", err)
	}
}
