package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/Lucasantunesribeiro/korp-teste/internal/usecase"
)

type fakeReserver struct {
	result usecase.Result
	calls  []usecase.ReserveBatchParams
}

func (f *fakeReserver) ReserveBatch(_ context.Context, params usecase.ReserveBatchParams) usecase.Result {
	f.calls = append(f.calls, params)
	return f.result
}

type fakeDedup struct {
	seen      map[string]bool
	existsErr error
	markErr   error
	marked    []string
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[string]bool)}
}

func (f *fakeDedup) Exists(_ context.Context, messageID string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.seen[messageID], nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, messageID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.seen[messageID] = true
	f.marked = append(f.marked, messageID)
	return nil
}

func TestHandle_ValidRequest(t *testing.T) {
	reserver := &fakeReserver{result: usecase.Result{Success: true}}
	dedup := newFakeDedup()
	handler := NewHandler(reserver, dedup)

	body := []byte(`{"notaId":"invoice-1","itens":[{"produtoId":"p1","quantidade":3},{"produtoId":"p2","quantidade":1}]}`)

	if err := handler.Handle(context.Background(), "msg-1", body); err != nil {
		t.Fatalf("expected nil, got error: %v", err)
	}

	if len(reserver.calls) != 1 {
		t.Fatalf("expected 1 reserve call, got %d", len(reserver.calls))
	}
	call := reserver.calls[0]
	if call.InvoiceID != "invoice-1" {
		t.Errorf("expected invoice-1, got %q", call.InvoiceID)
	}
	if len(call.Items) != 2 || call.Items[0].ProductID != "p1" || call.Items[0].Quantity != 3 {
		t.Errorf("unexpected items %+v", call.Items)
	}
	if len(dedup.marked) != 1 || dedup.marked[0] != "msg-1" {
		t.Errorf("expected msg-1 marked processed, got %v", dedup.marked)
	}
}

func TestHandle_DuplicateIsSkipped(t *testing.T) {
	reserver := &fakeReserver{}
	dedup := newFakeDedup()
	dedup.seen["msg-1"] = true
	handler := NewHandler(reserver, dedup)

	body := []byte(`{"notaId":"invoice-1","itens":[{"produtoId":"p1","quantidade":3}]}`)

	if err := handler.Handle(context.Background(), "msg-1", body); err != nil {
		t.Fatalf("expected nil, got error: %v", err)
	}
	if len(reserver.calls) != 0 {
		t.Errorf("expected no reserve calls, got %d", len(reserver.calls))
	}
	if len(dedup.marked) != 0 {
		t.Errorf("expected no re-marking, got %v", dedup.marked)
	}
}

func TestHandle_MalformedBodyIsDropped(t *testing.T) {
	reserver := &fakeReserver{}
	dedup := newFakeDedup()
	handler := NewHandler(reserver, dedup)

	if err := handler.Handle(context.Background(), "msg-1", []byte("not json")); err != nil {
		t.Fatalf("expected nil for poison message, got error: %v", err)
	}
	if len(reserver.calls) != 0 {
		t.Errorf("expected no reserve calls, got %d", len(reserver.calls))
	}
}

func TestHandle_MissingInvoiceOrItemsIsDropped(t *testing.T) {
	for name, body := range map[string]string{
		"no invoice": `{"itens":[{"produtoId":"p1","quantidade":3}]}`,
		"no items":   `{"notaId":"invoice-1","itens":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			reserver := &fakeReserver{}
			handler := NewHandler(reserver, newFakeDedup())

			if err := handler.Handle(context.Background(), "msg-1", []byte(body)); err != nil {
				t.Fatalf("expected nil, got error: %v", err)
			}
			if len(reserver.calls) != 0 {
				t.Errorf("expected no reserve calls, got %d", len(reserver.calls))
			}
		})
	}
}

func TestHandle_RejectedBatchStillSettlesMessage(t *testing.T) {
	reserver := &fakeReserver{result: usecase.Result{
		Success: false,
		Code:    usecase.FailureInsufficientBalance,
		Message: "insufficient balance",
	}}
	dedup := newFakeDedup()
	handler := NewHandler(reserver, dedup)

	body := []byte(`{"notaId":"invoice-1","itens":[{"produtoId":"p1","quantidade":99}]}`)

	if err := handler.Handle(context.Background(), "msg-1", body); err != nil {
		t.Fatalf("expected nil for business rejection, got error: %v", err)
	}
	if len(dedup.marked) != 1 {
		t.Errorf("expected message marked processed, got %v", dedup.marked)
	}
}

func TestHandle_DedupErrorsPropagate(t *testing.T) {
	body := []byte(`{"notaId":"invoice-1","itens":[{"produtoId":"p1","quantidade":3}]}`)

	t.Run("exists check fails", func(t *testing.T) {
		dedup := newFakeDedup()
		dedup.existsErr = errors.New("connection refused")
		handler := NewHandler(&fakeReserver{}, dedup)

		if err := handler.Handle(context.Background(), "msg-1", body); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("mark processed fails", func(t *testing.T) {
		dedup := newFakeDedup()
		dedup.markErr = errors.New("connection refused")
		handler := NewHandler(&fakeReserver{result: usecase.Result{Success: true}}, dedup)

		if err := handler.Handle(context.Background(), "msg-1", body); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
