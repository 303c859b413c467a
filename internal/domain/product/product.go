package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when no product matches.
	ErrNotFound = errors.New("product not found")

	// ErrVersionConflict is returned when a concurrent writer changed the
	// product between load and update (optimistic concurrency).
	ErrVersionConflict = errors.New("product version conflict")

	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInactive            = errors.New("product is inactive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Product is the inventory aggregate. Balance never goes negative and is
// mutated only through DebitStock and the administrative setters; persistence
// is the caller's concern.
type Product struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Balance   int       `json:"balance"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	// Version backs the compare-and-swap check at update time.
	Version int64 `json:"-"`
}

func New(sku, name string, initialBalance int) (*Product, error) {
	if sku == "" {
		return nil, errors.New("sku is required")
	}
	if name == "" {
		return nil, errors.New("name is required")
	}
	if initialBalance < 0 {
		return nil, errors.New("initial balance must be >= 0")
	}

	return &Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      name,
		Balance:   initialBalance,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DebitStock decrements the balance in place. It has no side effects beyond
// the in-memory mutation.
func (p *Product) DebitStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.Active {
		return ErrInactive
	}
	if p.Balance < quantity {
		return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientBalance, p.Balance, quantity)
	}

	p.Balance -= quantity
	return nil
}

// SetBalance is an administrative override, not part of the reservation flow.
func (p *Product) SetBalance(balance int) error {
	if balance < 0 {
		return errors.New("balance must be >= 0")
	}
	p.Balance = balance
	return nil
}

// Products are never deleted, only deactivated.
func (p *Product) Deactivate() { p.Active = false }

func (p *Product) Activate() { p.Active = true }
