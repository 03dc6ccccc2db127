package handler

import (
	"net/http"

	"github.com/salesdesk/order-engine/internal/domain/order"
)

type boardColumn struct {
	Status string          `json:"status"`
	Orders []orderResponse `json:"orders"`
}

type boardResponse struct {
	Columns []boardColumn `json:"columns"`
}

func (h *Handler) boardSnapshot(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Snapshot(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	resp := boardResponse{Columns: make([]boardColumn, len(board.Columns))}
	for i, col := range board.Columns {
		orders := make([]orderResponse, len(col.Orders))
		for j := range col.Orders {
			orders[j] = toOrderResponse(&col.Orders[j])
		}
		resp.Columns[i] = boardColumn{Status: string(col.Status), Orders: orders}
	}
	writeJSON(w, http.StatusOK, resp)
}

type moveOrderRequest struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	// TrackingCode is solicited when moving to shipped; empty means skipped.
	TrackingCode string `json:"tracking_code,omitempty"`
}

func (h *Handler) moveOrder(w http.ResponseWriter, r *http.Request) {
	var req moveOrderRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: err.Error()})
		return
	}

	err := h.board.MoveOrder(r.Context(), req.OrderID,
		order.Status(req.From), order.Status(req.To), req.TrackingCode)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{OrderID: req.OrderID, Status: req.To})
}
