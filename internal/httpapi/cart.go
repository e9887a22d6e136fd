package httpapi

import (
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/transport"

	"github.com/go-chi/chi/v5"
)

type cartHandler struct {
	carts  cart.Service
	orders order.Service
}

func (h *cartHandler) add(w http.ResponseWriter, r *http.Request) {
	var in cart.AddInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	item, err := h.carts.AddToCart(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *cartHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), actorFrom(r))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, cartResponse{Cart: *c, DisplayTotal: c.DisplayTotal()})
}

// update addresses the line by product id; a zero quantity removes it.
func (h *cartHandler) update(w http.ResponseWriter, r *http.Request) {
	var in cart.UpdateInput
	if err := transport.DecodeJSONBody(r, &in); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	item, err := h.carts.UpdateQuantity(r.Context(), actorFrom(r), chi.URLParam(r, "id"), in.Quantity)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	if item == nil {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *cartHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveFromCart(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

// checkout turns the caller's cart into a pending order. The body is
// optional.
func (h *cartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var in order.CheckoutInput
	if r.ContentLength != 0 {
		if err := transport.DecodeJSONBody(r, &in); err != nil {
			transport.WriteError(r.Context(), w, err)
			return
		}
	}
	o, err := h.orders.Checkout(r.Context(), actorFrom(r), in)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, newOrderResponse(o))
}
