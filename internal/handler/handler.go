// Package handler exposes the order engine over a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/salesdesk/order-engine/internal/cep"
	"github.com/salesdesk/order-engine/internal/domain/catalog"
	"github.com/salesdesk/order-engine/internal/domain/directory"
	"github.com/salesdesk/order-engine/internal/domain/inventory"
	"github.com/salesdesk/order-engine/internal/domain/order"
	"github.com/salesdesk/order-engine/internal/domain/pricing"
	"github.com/salesdesk/order-engine/internal/kanban"
)

// Handler serves the editing surface and board endpoints, delegating all
// business logic to the domain services.
type Handler struct {
	catalog   catalog.Repository
	directory directory.Repository
	resolver  *cep.Client
	orders    order.Repository
	ledger    inventory.Repository
	service   *order.Service
	board     *kanban.Controller
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogRepo catalog.Repository,
	directoryRepo directory.Repository,
	resolver *cep.Client,
	orders order.Repository,
	ledger inventory.Repository,
	service *order.Service,
	board *kanban.Controller,
) *Handler {
	return &Handler{
		catalog:   catalogRepo,
		directory: directoryRepo,
		resolver:  resolver,
		orders:    orders,
		ledger:    ledger,
		service:   service,
		board:     board,
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/payment-methods", h.listPaymentMethods)
	mux.HandleFunc("GET /api/clients", h.searchClients)
	mux.HandleFunc("GET /api/cep/{code}", h.lookupPostalCode)

	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("POST /api/orders/quote", h.quoteOrder)
	mux.HandleFunc("GET /api/orders/{id}/movements", h.listOrderMovements)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}", h.updateOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("POST /api/orders/{id}/advance", h.advanceOrder)
	mux.HandleFunc("POST /api/orders/{id}/revert", h.revertOrder)

	mux.HandleFunc("GET /api/board", h.boardSnapshot)
	mux.HandleFunc("POST /api/board/move", h.moveOrder)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to an HTTP status and uniform body.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zctx.From(ctx).Error("request failed", zap.Error(err))
		writeJSON(w, status, errorResponse{Code: status, Message: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, cep.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrClientRequired), errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, cep.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, pricing.ErrInvalidDiscountCode):
		return http.StatusUnprocessableEntity
	}

	var (
		lock     *order.LockViolationError
		conflict *order.ConflictError
		stale    *kanban.StaleColumnError
	)
	switch {
	case errors.As(err, &lock):
		return http.StatusForbidden
	case errors.As(err, &conflict), errors.As(err, &stale):
		return http.StatusConflict
	case order.IsValidation(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// decode reads a JSON request body into v with a size cap.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request")
	}
	return nil
}
