package reservation

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusReserved = "RESERVED"

	// StatusCanceled exists for the shape of the status field only; no code
	// path writes it yet.
	StatusCanceled = "CANCELED"
)

// Reservation records a successful stock debit for one invoice item. It is
// created exactly once per debit and immutable afterwards.
type Reservation struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func New(invoiceID, productID string, quantity int) *Reservation {
	return &Reservation{
		ID:        uuid.New().String(),
		InvoiceID: invoiceID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    StatusReserved,
		CreatedAt: time.Now().UTC(),
	}
}
