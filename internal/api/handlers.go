package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"
	"github.com/Lucasantunesribeiro/korp-teste/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	reserveUC       *usecase.ReserveStock
	createProductUC *usecase.CreateProduct
	getProductUC    *usecase.GetProduct
	listProductsUC  *usecase.ListProducts
	activityUC      *usecase.InvoiceActivity
}

func NewHandlers(
	reserveUC *usecase.ReserveStock,
	createProductUC *usecase.CreateProduct,
	getProductUC *usecase.GetProduct,
	listProductsUC *usecase.ListProducts,
	activityUC *usecase.InvoiceActivity,
) *Handlers {
	return &Handlers{
		reserveUC:       reserveUC,
		createProductUC: createProductUC,
		getProductUC:    getProductUC,
		listProductsUC:  listProductsUC,
		activityUC:      activityUC,
	}
}

type reserveResponse struct {
	Success       bool   `json:"success"`
	ReservationID string `json:"reservationId,omitempty"`
	Message       string `json:"message,omitempty"`
}

func (h *Handlers) Reserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InvoiceID string `json:"invoiceId"`
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Test/ops escape hatch: force a rollback right before commit.
	simulateFailure := r.Header.Get("X-Demo-Fail") == "true"

	result := h.reserveUC.Reserve(r.Context(), usecase.ReserveParams{
		InvoiceID:       req.InvoiceID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		SimulateFailure: simulateFailure,
	})

	w.Header().Set("Content-Type", "application/json")

	if !result.Success {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(reserveResponse{
			Success: false,
			Message: result.Message,
		})
		return
	}

	json.NewEncoder(w).Encode(reserveResponse{
		Success:       true,
		ReservationID: result.Reservation.ID,
		Message:       "reservation created",
	})
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var params usecase.CreateProductParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.createProductUC.Execute(r.Context(), params)
	if err != nil {
		if errors.Is(err, usecase.ErrSKUAlreadyExists) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing product id", http.StatusBadRequest)
		return
	}

	p, err := h.getProductUC.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.listProductsUC.Execute(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products)
}

func (h *Handlers) InvoiceActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing invoice id", http.StatusBadRequest)
		return
	}

	activity, err := h.activityUC.Execute(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	json.NewEncoder(w).Encode(activity)
}
