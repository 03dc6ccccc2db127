package handler

import (
	"net/http"
)

type productResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = productResponse{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price.InexactFloat64(),
			Stock: p.Stock,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type paymentMethodResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalog.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]paymentMethodResponse, len(methods))
	for i, m := range methods {
		out[i] = paymentMethodResponse{ID: m.ID, Name: m.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

type clientSummaryResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.directory.SearchClients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]clientSummaryResponse, len(clients))
	for i, c := range clients {
		out[i] = clientSummaryResponse{
			ID:           c.ID,
			Kind:         string(c.Kind),
			Name:         c.Name,
			Email:        c.Email,
			Phone:        c.Phone,
			PostalCode:   c.PostalCode,
			Street:       c.Street,
			Number:       c.Number,
			Neighborhood: c.Neighborhood,
			City:         c.City,
			State:        c.State,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) lookupPostalCode(w http.ResponseWriter, r *http.Request) {
	addr, err := h.resolver.Lookup(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressDTO(*addr))
}
