package httpapi

import (
	"net/http"

	"storefront-be/internal/order"
	"storefront-be/internal/transport"

	"github.com/go-chi/chi/v5"
)

type orderHandler struct {
	orders order.Service
}

func (h *orderHandler) create(w http.ResponseWriter, r *http.Request) {
	var in order.CreateInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	o, err := h.orders.CreateOrder(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *orderHandler) list(w http.ResponseWriter, r *http.Request) {
	var filter order.ListFilter
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := order.ParseStatus(raw)
		if !ok {
			transport.WriteError(r.Context(), w, order.ErrInvalidStatus)
			return
		}
		filter.Status = st
	}
	filter.UserID = r.URL.Query().Get("userId")

	orders, total, err := h.orders.ListOrders(r.Context(), actorFrom(r), filter)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	resp := orderList{Orders: make([]orderResponse, 0, len(orders)), Total: total}
	for i := range orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&orders[i]))
	}
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (h *orderHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *orderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := transport.DecodeJSONBody(r, &req); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	to, ok := order.ParseStatus(req.Status)
	if !ok {
		transport.WriteError(r.Context(), w, order.ErrInvalidStatus)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), to, req.StatusOptions)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, newOrderResponse(o))
}
