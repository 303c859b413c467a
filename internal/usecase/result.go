package usecase

import (
	"errors"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"
	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/reservation"
)

type FailureCode string

const (
	FailureProductNotFound     FailureCode = "PRODUCT_NOT_FOUND"
	FailureInvalidQuantity     FailureCode = "INVALID_QUANTITY"
	FailureInactive            FailureCode = "PRODUCT_INACTIVE"
	FailureInsufficientBalance FailureCode = "INSUFFICIENT_BALANCE"
	FailureConcurrencyConflict FailureCode = "CONCURRENCY_CONFLICT"
	FailureProcessingError     FailureCode = "PROCESSING_ERROR"
)

// Result is the reservation engine's only public outcome. Storage and
// serialization errors never cross the boundary as raw errors; they become a
// failure code plus message.
type Result struct {
	Success      bool
	Code         FailureCode
	Message      string
	Reservation  *reservation.Reservation
	Reservations []*reservation.Reservation
}

func succeeded(res *reservation.Reservation) Result {
	return Result{Success: true, Reservation: res}
}

func succeededBatch(reservations []*reservation.Reservation) Result {
	return Result{Success: true, Reservations: reservations}
}

func failed(code FailureCode, message string) Result {
	return Result{Code: code, Message: message}
}

func failureFromDebit(err error) Result {
	switch {
	case errors.Is(err, product.ErrInvalidQuantity):
		return failed(FailureInvalidQuantity, err.Error())
	case errors.Is(err, product.ErrInactive):
		return failed(FailureInactive, err.Error())
	case errors.Is(err, product.ErrInsufficientBalance):
		return failed(FailureInsufficientBalance, err.Error())
	default:
		return failed(FailureProcessingError, err.Error())
	}
}
