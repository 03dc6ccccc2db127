package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesdesk/order-engine/internal/domain/order"
	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// --- Wire types ---

type clientDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type addressDTO struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type itemDTO struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	// Manual marks an ad-hoc item; when set without a product ID the server
	// assigns a synthetic one.
	Manual bool `json:"manual,omitempty"`
}

type saveOrderRequest struct {
	Version        int64      `json:"version,omitempty"`
	Client         *clientDTO `json:"client"`
	Address        addressDTO `json:"address"`
	ShippingMethod string     `json:"shipping_method"`
	DiscountCode   string     `json:"discount_code,omitempty"`
	DiscountAmount float64    `json:"discount_amount,omitempty"`
	PaymentMethod  string     `json:"payment_method"`
	Items          []itemDTO  `json:"items"`
}

type orderResponse struct {
	ID             string     `json:"id"`
	Version        int64      `json:"version"`
	Client         *clientDTO `json:"client,omitempty"`
	Address        addressDTO `json:"address"`
	ShippingMethod string     `json:"shipping_method"`
	ShippingFee    float64    `json:"shipping_fee"`
	DiscountCode   string     `json:"discount_code,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	PaymentMethod  string     `json:"payment_method"`
	Status         string     `json:"status"`
	TrackingCode   string     `json:"tracking_code,omitempty"`
	Items          []itemDTO  `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	InsuranceFee   float64    `json:"insurance_fee"`
	GrandTotal     float64    `json:"grand_total"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type saveOrderResponse struct {
	Order    orderResponse `json:"order"`
	Oversold []string      `json:"oversold,omitempty"`
}

func (req *saveOrderRequest) toDomain(id string) *order.Order {
	o := &order.Order{
		ID:             id,
		Version:        req.Version,
		Address:        order.Address(req.Address),
		ShippingMethod: pricing.ShippingMethod(req.ShippingMethod),
		DiscountCode:   req.DiscountCode,
		DiscountAmount: decimal.NewFromFloat(req.DiscountAmount),
		PaymentMethod:  req.PaymentMethod,
	}
	if req.Client != nil {
		o.Client = &order.ClientRef{
			ID:    req.Client.ID,
			Name:  req.Client.Name,
			Email: req.Client.Email,
			Phone: req.Client.Phone,
		}
	}
	o.Items = make([]order.LineItem, len(req.Items))
	for i, item := range req.Items {
		productID := item.ProductID
		if item.Manual && productID == "" {
			productID = order.NewManualID()
		}
		o.Items[i] = order.LineItem{
			ProductID: productID,
			Name:      item.Name,
			UnitPrice: decimal.NewFromFloat(item.UnitPrice),
			Quantity:  item.Quantity,
		}
	}
	return o
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		Version:        o.Version,
		Address:        addressDTO(o.Address),
		ShippingMethod: string(o.ShippingMethod),
		ShippingFee:    o.ShippingFee.InexactFloat64(),
		DiscountCode:   o.DiscountCode,
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		PaymentMethod:  o.PaymentMethod,
		Status:         string(o.Status),
		TrackingCode:   o.TrackingCode,
		Subtotal:       o.Subtotal.InexactFloat64(),
		InsuranceFee:   o.InsuranceFee.InexactFloat64(),
		GrandTotal:     o.GrandTotal.InexactFloat64(),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Client != nil {
		resp.Client = &clientDTO{
			ID:    o.Client.ID,
			Name:  o.Client.Name,
			Email: o.Client.Email,
			Phone: o.Client.Phone,
		}
	}
	resp.Items = make([]itemDTO, len(o.Items))
	for i, item := range o.Items {
		resp.Items[i] = itemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
			Manual:    item.Manual(),
		}
	}
	return resp
}

// --- Handlers ---

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	all, err := h.orders.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	out := make([]orderResponse, len(all))
	for i := range all {
		out[i] = toOrderResponse(&all[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	h.saveOrder(w, r, "")
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	h.saveOrder(w, r, r.PathValue("id"))
}

func (h *Handler) saveOrder(w http.ResponseWriter, r *http.Request, id string) {
	var req saveOrderRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: err.Error()})
		return
	}

	o := req.toDomain(id)
	result, err := h.service.Save(r.Context(), PrincipalFromContext(r.Context()), o)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, saveOrderResponse{
		Order:    toOrderResponse(o),
		Oversold: result.Oversold,
	})
}

type quoteResponse struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingFee    float64 `json:"shipping_fee"`
	InsuranceFee   float64 `json:"insurance_fee"`
	DiscountAmount float64 `json:"discount_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// quoteOrder recomputes totals for an in-progress edit without persisting.
func (h *Handler) quoteOrder(w http.ResponseWriter, r *http.Request) {
	var req saveOrderRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: err.Error()})
		return
	}

	totals, err := h.service.Quote(req.toDomain(""))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	totals = totals.Round()
	writeJSON(w, http.StatusOK, quoteResponse{
		Subtotal:       totals.Subtotal.InexactFloat64(),
		ShippingFee:    totals.ShippingFee.InexactFloat64(),
		InsuranceFee:   totals.InsuranceFee.InexactFloat64(),
		DiscountAmount: totals.DiscountAmount.InexactFloat64(),
		GrandTotal:     totals.GrandTotal.InexactFloat64(),
	})
}

type movementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Kind      string    `json:"kind"`
	Quantity  int       `json:"quantity"`
	Origin    string    `json:"origin,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// listOrderMovements returns the ledger rows backing an order's reservations.
func (h *Handler) listOrderMovements(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.orders.Get(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	movements, err := h.ledger.ListByOrder(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]movementResponse, len(movements))
	for i, m := range movements {
		out[i] = movementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Kind:      string(m.Kind),
			Quantity:  m.Quantity,
			Origin:    m.Origin,
			Note:      m.Note,
			CreatedAt: m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := h.board.QuickAdvance(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{OrderID: id, Status: string(status)})
}

func (h *Handler) revertOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := h.board.QuickRevert(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{OrderID: id, Status: string(status)})
}
